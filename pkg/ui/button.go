package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Button fires OnClick once per press.
type Button struct {
	Label   string
	X, Y    float64
	Width   float64
	Height  float64
	OnClick func()

	pressed bool

	BGColor    color.RGBA
	HoverColor color.RGBA
}

func NewButton(x, y, width, height float64, label string, onClick func()) *Button {
	return &Button{
		Label:      label,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
		OnClick:    onClick,
		BGColor:    color.RGBA{R: 80, G: 120, B: 180, A: 255},
		HoverColor: color.RGBA{R: 100, G: 150, B: 220, A: 255},
	}
}

func (b *Button) hovered() bool {
	return cursorIn(b.X, b.Y, b.Width, b.Height)
}

func (b *Button) Update() {
	if b.hovered() && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !b.pressed && b.OnClick != nil {
			b.OnClick()
		}
		b.pressed = true
		return
	}
	b.pressed = false
}

func (b *Button) Draw(screen *ebiten.Image) {
	bg := b.BGColor
	if b.hovered() {
		bg = b.HoverColor
	}
	vector.FillRect(screen, float32(b.X), float32(b.Y), float32(b.Width), float32(b.Height), bg, true)
	vector.StrokeRect(screen, float32(b.X), float32(b.Y), float32(b.Width), float32(b.Height),
		1, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(b.X+6), int(b.Y+(b.Height-16)/2))
}

// cursorIn reports whether the mouse cursor is inside the given rectangle.
func cursorIn(x, y, w, h float64) bool {
	mx, my := ebiten.CursorPosition()
	fx, fy := float64(mx), float64(my)
	return fx >= x && fx <= x+w && fy >= y && fy <= y+h
}
