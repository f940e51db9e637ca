package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox toggles Value on click. The label is drawn on its right and is clickable too.
type Checkbox struct {
	Label   string
	Value   bool
	X, Y    float64
	Size    float64
	pressed bool
}

func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{
		Label: label,
		Value: value,
		X:     x,
		Y:     y,
		Size:  14,
	}
}

func (c *Checkbox) hitWidth() float64 {
	// DebugPrint glyphs are 6 pixels wide
	return c.Size + 8 + float64(len(c.Label)*6)
}

func (c *Checkbox) Update() {
	if cursorIn(c.X, c.Y, c.hitWidth(), c.Size) && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !c.pressed {
			c.Value = !c.Value
		}
		c.pressed = true
		return
	}
	c.pressed = false
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen, float32(c.X), float32(c.Y), float32(c.Size), float32(c.Size),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	if c.Value {
		vector.FillRect(screen, float32(c.X+3), float32(c.Y+3), float32(c.Size-6), float32(c.Size-6),
			color.RGBA{R: 100, G: 200, B: 100, A: 255}, true)
	}
	ebitenutil.DebugPrintAt(screen, c.Label, int(c.X+c.Size+8), int(c.Y-1))
}
