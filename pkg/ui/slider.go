package ui

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Slider is a horizontal bar selecting a value in [Min, Max]. Dragging
// anywhere on the bar moves the value.
type Slider struct {
	Rect
	Label    string
	Value    float64
	Min, Max float64
}

// NewSlider creates a slider of default height
func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	s := &Slider{Rect: Rect{X: x, Y: y, W: w, H: 10}, Label: label, Min: min, Max: max}
	s.Value = s.clamp(value)
	return s
}

// SetFromX moves the value to the horizontal position x
func (s *Slider) SetFromX(x float64) {
	if s.W <= 0 {
		return
	}
	p := (x - s.X) / s.W
	s.Value = s.clamp(s.Min + p*(s.Max-s.Min))
}

func (s *Slider) clamp(v float64) float64 {
	return max(s.Min, min(s.Max, v))
}

// ratio is the knob position in [0, 1]
func (s *Slider) ratio() float64 {
	if s.Max <= s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func (s *Slider) Update() {
	if x, y, down := pointer(); down && s.Contains(x, y) {
		s.SetFromX(x)
	}
}

func (s *Slider) Draw(screen *ebiten.Image) {
	s.fill(screen, trackColor)
	filled := s.Rect
	filled.W *= s.ratio()
	filled.fill(screen, knobColor)

	ebitenutil.DebugPrintAt(screen, s.Label, int(s.X), int(s.Y-15))
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.3f", s.Value), int(s.X+s.W-48), int(s.Y-15))
}

func (s *Slider) area() *Rect        { return &s.Rect }
func (s *Slider) rowHeight() float64 { return s.H + 25 }
