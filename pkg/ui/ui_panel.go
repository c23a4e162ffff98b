package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const (
	sectionHeight = 25.0
	titleHeight   = 30.0
	scrollStep    = 20.0
)

// Widget is implemented by the sliders, checkboxes and buttons of this
// package
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	area() *Rect
	rowHeight() float64
}

// Section is a titled run of widgets
type Section struct {
	Title      string
	StartIndex int // first widget of the section
	EndIndex   int // exclusive, -1 while open
}

// Panel is a scrollable column of widgets drawn over the left screen edge
type Panel struct {
	Rect
	Title        string
	Widgets      []Widget
	ScrollOffset float64

	BGColor      color.RGBA
	BorderColor  color.RGBA
	SectionColor color.RGBA

	sections []Section
}

// NewPanel creates an empty panel
func NewPanel(title string, x, y, width, height float64) *Panel {
	return &Panel{
		Rect:         Rect{X: x, Y: y, W: width, H: height},
		Title:        title,
		BGColor:      color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor:  color.RGBA{R: 100, G: 100, B: 110, A: 255},
		SectionColor: color.RGBA{R: 60, G: 60, B: 70, A: 255},
	}
}

// AddSection opens a section; widgets added next belong to it
func (p *Panel) AddSection(title string) {
	p.EndSection()
	p.sections = append(p.sections, Section{
		Title:      title,
		StartIndex: len(p.Widgets),
		EndIndex:   -1,
	})
}

// EndSection closes the current section
func (p *Panel) EndSection() {
	if n := len(p.sections); n > 0 && p.sections[n-1].EndIndex < 0 {
		p.sections[n-1].EndIndex = len(p.Widgets)
	}
}

func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+10, p.nextY(), p.W-20, label, min, max, value)
	p.Widgets = append(p.Widgets, s)
	return s
}

func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+10, p.nextY(), label, value)
	p.Widgets = append(p.Widgets, c)
	return c
}

// AddButton adds a full width button
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, p.nextY(), p.W-20, 22, label, onClick)
	p.Widgets = append(p.Widgets, b)
	return b
}

func (p *Panel) nextY() float64 {
	return p.Y + p.contentOffset() + 20
}

func (p *Panel) contentOffset() float64 {
	offset := float64(len(p.sections)) * sectionHeight
	for _, w := range p.Widgets {
		offset += w.rowHeight()
	}
	return offset
}

// ContentHeight is the height of the laid out widgets and headers
func (p *Panel) ContentHeight() float64 {
	return titleHeight + p.contentOffset()
}

// Scroll moves the content by dy wheel steps, clamped to the content
func (p *Panel) Scroll(dy float64) {
	maxScroll := max(0, p.ContentHeight()-p.H+40)
	p.ScrollOffset = max(0, min(maxScroll, p.ScrollOffset-dy*scrollStep))
}

// Update handles wheel scrolling and input for all widgets
func (p *Panel) Update() {
	if _, dy := ebiten.Wheel(); dy != 0 {
		if x, y, _ := pointer(); p.Contains(x, y) {
			p.Scroll(dy)
		}
	}
	p.layout(func(string, float64) {})
	for _, w := range p.Widgets {
		w.Update()
	}
}

// layout positions the widgets for the current scroll offset and calls
// visit with the y of each section header
func (p *Panel) layout(visit func(title string, y float64)) {
	y := p.Y + titleHeight - p.ScrollOffset
	for _, section := range p.sections {
		visit(section.Title, y)
		y += sectionHeight
		end := section.EndIndex
		if end < 0 {
			end = len(p.Widgets)
		}
		for _, w := range p.Widgets[section.StartIndex:end] {
			w.area().Y = y + 15
			y += w.rowHeight()
		}
	}
}

func (p *Panel) visible(y float64) bool {
	return y >= p.Y+titleHeight-5 && y <= p.Y+p.H-15
}

// Draw renders the panel and all widgets
func (p *Panel) Draw(screen *ebiten.Image) {
	p.fill(screen, p.BGColor)
	p.stroke(screen, 2, p.BorderColor)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	p.layout(func(title string, y float64) {
		if p.visible(y) {
			Rect{X: p.X + 5, Y: y, W: p.W - 10, H: 20}.fill(screen, p.SectionColor)
			ebitenutil.DebugPrintAt(screen, title, int(p.X+10), int(y+5))
		}
	})
	for _, w := range p.Widgets {
		if p.visible(w.area().Y) {
			w.Draw(screen)
		}
	}
}
