package rendersync

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"imagetext-studio/core"
)

// ShadowSurface is the server-side Surface implementation: a typed object
// table keyed by layer id that mirrors what the browser canvas holds. Pixel
// rendering of text belongs to the browser surface; Export here produces a
// dimension-correct PNG so export plumbing can be exercised end to end.
type ShadowSurface struct {
	order       []string
	objects     map[string]ObjectProps
	active      []string
	canvas      core.CanvasSize
	renderCount int
}

// NewShadowSurface creates an empty surface for the given canvas size.
func NewShadowSurface(canvas core.CanvasSize) *ShadowSurface {
	return &ShadowSurface{
		objects: make(map[string]ObjectProps),
		canvas:  canvas,
	}
}

// SetSize resizes the surface to match the editing canvas.
func (s *ShadowSurface) SetSize(canvas core.CanvasSize) {
	s.canvas = canvas
}

// ObjectIDs returns tagged ids in paint order.
func (s *ShadowSurface) ObjectIDs() []string {
	return append([]string{}, s.order...)
}

// AddObject inserts a new tagged object.
func (s *ShadowSurface) AddObject(id string, props ObjectProps) {
	if _, exists := s.objects[id]; !exists {
		s.order = append(s.order, id)
	}
	s.objects[id] = props
}

// SetObjectProps replaces an existing object's properties.
func (s *ShadowSurface) SetObjectProps(id string, props ObjectProps) {
	if _, exists := s.objects[id]; !exists {
		return
	}
	s.objects[id] = props
}

// RemoveObject deletes the object tagged with id.
func (s *ShadowSurface) RemoveObject(id string) {
	if _, exists := s.objects[id]; !exists {
		return
	}
	delete(s.objects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// SetOrder re-stacks objects to the given paint order. Objects not named
// keep their relative order at the top of the stack.
func (s *ShadowSurface) SetOrder(ids []string) {
	listed := make(map[string]bool, len(ids))
	order := make([]string, 0, len(s.order))
	for _, id := range ids {
		if _, ok := s.objects[id]; ok {
			order = append(order, id)
			listed[id] = true
		}
	}
	for _, id := range s.order {
		if !listed[id] {
			order = append(order, id)
		}
	}
	s.order = order
}

// Object returns the properties of the object tagged with id.
func (s *ShadowSurface) Object(id string) (ObjectProps, bool) {
	props, ok := s.objects[id]
	return props, ok
}

// SetActive replaces the active-object set.
func (s *ShadowSurface) SetActive(ids []string) {
	s.active = append([]string{}, ids...)
}

// Active returns the current active-object set.
func (s *ShadowSurface) Active() []string {
	return append([]string{}, s.active...)
}

// Render counts repaints; the browser owns actual painting.
func (s *ShadowSurface) Render() {
	s.renderCount++
}

// RenderCount returns how many repaints have been issued.
func (s *ShadowSurface) RenderCount() int {
	return s.renderCount
}

// Export encodes a PNG sized to the canvas scaled by the multiplier.
func (s *ShadowSurface) Export(multiplier float64) ([]byte, error) {
	if multiplier <= 0 {
		return nil, fmt.Errorf("invalid export multiplier %v", multiplier)
	}
	width := int(math.Round(s.canvas.Width * multiplier))
	height := int(math.Round(s.canvas.Height * multiplier))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid export dimensions %dx%d", width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, white)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ Surface = (*ShadowSurface)(nil)
