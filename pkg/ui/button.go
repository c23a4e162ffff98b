package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Button runs OnClick once per press
type Button struct {
	Rect
	Label   string
	OnClick func()

	Fill  color.RGBA
	Hover color.RGBA

	edge edge
}

func NewButton(x, y, width, height float64, label string, onClick func()) *Button {
	return &Button{
		Rect:    Rect{X: x, Y: y, W: width, H: height},
		Label:   label,
		OnClick: onClick,
		Fill:    color.RGBA{R: 80, G: 120, B: 180, A: 255},
		Hover:   color.RGBA{R: 100, G: 150, B: 220, A: 255},
	}
}

func (b *Button) Update() {
	b.press(pointer())
}

func (b *Button) press(x, y float64, down bool) {
	if b.edge.pressed(down, b.Contains(x, y)) && b.OnClick != nil {
		b.OnClick()
	}
}

func (b *Button) Draw(screen *ebiten.Image) {
	x, y, _ := pointer()
	clr := b.Fill
	if b.Contains(x, y) {
		clr = b.Hover
	}
	b.fill(screen, clr)
	b.stroke(screen, 2, frameColor)
	ebitenutil.DebugPrintAt(screen, b.Label, int(b.X+6), int(b.Y+b.H/2-8))
}

func (b *Button) area() *Rect        { return &b.Rect }
func (b *Button) rowHeight() float64 { return b.H + 8 }
