package editor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Export precondition errors. Both are checked before any artifact is
// produced; a failed export never yields partial output.
var (
	ErrNoCanvas     = errors.New("canvas has no dimensions")
	ErrNoBackground = errors.New("no background image")
)

// ExportArtifact is a finished PNG download: the encoded bytes plus the
// filename and dimensions the client should use.
type ExportArtifact struct {
	Filename   string  `json:"filename"`
	Data       []byte  `json:"-"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Multiplier float64 `json:"multiplier"`
}

// Export flattens the composition to a PNG at the background image's native
// resolution. The uniform multiplier is the larger of the width and height
// ratios between image and canvas, so a canvas scaled down for editing
// exports at full size.
func (s *Session) Export() (*ExportArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	canvas := s.doc.CanvasSize()
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return nil, ErrNoCanvas
	}
	bg := s.doc.Background()
	if bg == nil {
		return nil, ErrNoBackground
	}

	multiplier := math.Max(
		bg.Dimensions.Width/canvas.Width,
		bg.Dimensions.Height/canvas.Height,
	)

	data, err := s.surface.Export(multiplier)
	if err != nil {
		return nil, fmt.Errorf("surface export failed: %w", err)
	}

	artifact := &ExportArtifact{
		Filename:   fmt.Sprintf("image-text-composition-%d.png", time.Now().Unix()),
		Data:       data,
		Width:      int(math.Round(canvas.Width * multiplier)),
		Height:     int(math.Round(canvas.Height * multiplier)),
		Multiplier: multiplier,
	}
	logrus.WithFields(logrus.Fields{
		"filename":   artifact.Filename,
		"width":      artifact.Width,
		"height":     artifact.Height,
		"multiplier": multiplier,
	}).Info("Composition exported")
	return artifact, nil
}
