package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const checkboxSize = 16.0

// Checkbox toggles Value once per press on the box
type Checkbox struct {
	Rect
	Label string
	Value bool

	edge edge
}

func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{
		Rect:  Rect{X: x, Y: y, W: checkboxSize, H: checkboxSize},
		Label: label,
		Value: value,
	}
}

func (c *Checkbox) Update() {
	c.press(pointer())
}

func (c *Checkbox) press(x, y float64, down bool) {
	if c.edge.pressed(down, c.Contains(x, y)) {
		c.Value = !c.Value
	}
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	c.stroke(screen, 2, frameColor)
	if c.Value {
		c.inset(2).fill(screen, checkColor)
	}
	ebitenutil.DebugPrintAt(screen, c.Label, int(c.X+c.W+8), int(c.Y))
}

func (c *Checkbox) area() *Rect        { return &c.Rect }
func (c *Checkbox) rowHeight() float64 { return c.H + 5 }
