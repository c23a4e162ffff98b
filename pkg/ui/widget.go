package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	trackColor = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	knobColor  = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	frameColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	checkColor = color.RGBA{R: 100, G: 200, B: 100, A: 255}
)

// Rect is a screen area in pixels
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies inside r, edges included
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

func (r Rect) fill(screen *ebiten.Image, clr color.Color) {
	vector.FillRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), clr, true)
}

func (r Rect) stroke(screen *ebiten.Image, width float32, clr color.Color) {
	vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), width, clr, true)
}

// inset shrinks r by d on every side
func (r Rect) inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

// edge turns a held mouse button into one event per press. A press only
// counts when the button goes down over the widget.
type edge struct {
	held bool
}

func (e *edge) pressed(down, over bool) bool {
	fire := down && over && !e.held
	e.held = down
	return fire
}

// pointer is the cursor position and the left button state
func pointer() (x, y float64, down bool) {
	mx, my := ebiten.CursorPosition()
	return float64(mx), float64(my), ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
}
