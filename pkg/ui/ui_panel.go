package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	rowHeight     = 22.0
	headerHeight  = 24.0
	titleHeight   = 26.0
	panelMargin   = 8.0
	widgetSpacing = 4.0
)

// Widget is anything the panel can lay out in a row.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	setPosition(x, y float64)
}

func (b *Button) setPosition(x, y float64)   { b.X, b.Y = x, y }
func (c *Checkbox) setPosition(x, y float64) { c.X, c.Y = x, y+4 }

type row struct {
	header  string // a section header when widgets is empty
	widgets []Widget
}

// Panel stacks sections of widget rows inside a fixed box, top to bottom.
type Panel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	rows          []row
	Collapsed     bool

	BGColor     color.RGBA
	BorderColor color.RGBA
}

func NewPanel(title string, x, y, width, height float64) *Panel {
	return &Panel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection starts a new section with a header.
func (p *Panel) AddSection(title string) {
	p.rows = append(p.rows, row{header: title})
}

// AddButtons adds a row of equally sized buttons, one per label.
func (p *Panel) AddButtons(labels []string, onClick func(i int)) []*Button {
	if len(labels) == 0 {
		return nil
	}
	w := (p.Width - 2*panelMargin - widgetSpacing*float64(len(labels)-1)) / float64(len(labels))
	buttons := make([]*Button, len(labels))
	r := row{}
	for i, label := range labels {
		buttons[i] = NewButton(0, 0, w, rowHeight-widgetSpacing, label, func() { onClick(i) })
		r.widgets = append(r.widgets, buttons[i])
	}
	p.rows = append(p.rows, r)
	p.layout()
	return buttons
}

// AddButton adds a full width button.
func (p *Panel) AddButton(label string, onClick func()) *Button {
	return p.AddButtons([]string{label}, func(int) { onClick() })[0]
}

// AddCheckbox adds a checkbox on its own row.
func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(0, 0, label, value)
	p.rows = append(p.rows, row{widgets: []Widget{c}})
	p.layout()
	return c
}

// layout places every widget from the panel origin.
func (p *Panel) layout() {
	y := p.Y + titleHeight
	for _, r := range p.rows {
		if len(r.widgets) == 0 {
			y += headerHeight
			continue
		}
		x := p.X + panelMargin
		for _, w := range r.widgets {
			w.setPosition(x, y)
			if b, ok := w.(*Button); ok {
				x += b.Width + widgetSpacing
			}
		}
		y += rowHeight
	}
}

// Update forwards input to the widgets. Tab or a click on the title bar collapses the panel.
func (p *Panel) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) || (cursorIn(p.X, p.Y, p.Width, titleHeight-6) &&
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)) {
		p.Collapsed = !p.Collapsed
	}
	if p.Collapsed {
		return
	}
	for _, r := range p.rows {
		for _, w := range r.widgets {
			w.Update()
		}
	}
}

func (p *Panel) Draw(screen *ebiten.Image) {
	h := p.Height
	if p.Collapsed {
		h = titleHeight - 4
	}
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(h), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(h), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+panelMargin), int(p.Y+4))
	if p.Collapsed {
		return
	}

	y := p.Y + titleHeight
	for _, r := range p.rows {
		if len(r.widgets) == 0 {
			vector.FillRect(screen, float32(p.X+4), float32(y), float32(p.Width-8), headerHeight-6,
				color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, r.header, int(p.X+panelMargin), int(y+1))
			y += headerHeight
			continue
		}
		for _, w := range r.widgets {
			w.Draw(screen)
		}
		y += rowHeight
	}
}
