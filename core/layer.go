package core

type (
	// Shadow is an optional drop shadow applied to a text layer.
	Shadow struct {
		Color   string  `json:"color"`
		Blur    float64 `json:"blur"`
		OffsetX float64 `json:"offsetX"`
		OffsetY float64 `json:"offsetY"`
	}

	// TextLayer is a single text overlay on the composition. The layer's
	// index in the containing slice is its paint order (later = on top).
	TextLayer struct {
		ID          string  `json:"id"`
		Text        string  `json:"text"`
		FontFamily  string  `json:"fontFamily"`
		FontSize    float64 `json:"fontSize"`
		FontWeight  string  `json:"fontWeight"`
		Fill        string  `json:"fill"`
		Opacity     float64 `json:"opacity"` // 0..1
		Align       string  `json:"align"`
		X           float64 `json:"x"`
		Y           float64 `json:"y"`
		Width       float64 `json:"width"`
		Height      float64 `json:"height"`
		Angle       float64 `json:"angle"`
		ScaleX      float64 `json:"scaleX"`
		ScaleY      float64 `json:"scaleY"`
		LineHeight  float64 `json:"lineHeight"`
		CharSpacing float64 `json:"charSpacing"`
		Shadow      *Shadow `json:"shadow,omitempty"`
		Locked      bool    `json:"locked"`
	}

	// ImageDimensions is the native pixel size of an uploaded image.
	ImageDimensions struct {
		Width       float64 `json:"width"`
		Height      float64 `json:"height"`
		AspectRatio float64 `json:"aspectRatio"`
	}

	// BackgroundImage references the uploaded background. Replacing it
	// discards the previous reference; its lifecycle is tied to the document.
	BackgroundImage struct {
		URL        string          `json:"url"`
		FileName   string          `json:"fileName,omitempty"`
		Dimensions ImageDimensions `json:"dimensions"`
	}

	// CanvasSize is the on-screen editing canvas size, which may be smaller
	// than the background image's native resolution.
	CanvasSize struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	// DocumentSnapshot is a deep copy of document state captured at a point
	// in time. Selection is deliberately excluded.
	DocumentSnapshot struct {
		Background *BackgroundImage `json:"background,omitempty"`
		Layers     []TextLayer      `json:"layers"`
		Canvas     CanvasSize       `json:"canvas"`
	}
)

// Clone returns a deep copy of the layer, including its shadow.
func (l TextLayer) Clone() TextLayer {
	out := l
	if l.Shadow != nil {
		shadow := *l.Shadow
		out.Shadow = &shadow
	}
	return out
}

// Clone returns a deep copy of the snapshot.
func (s DocumentSnapshot) Clone() DocumentSnapshot {
	out := DocumentSnapshot{Canvas: s.Canvas}
	if s.Background != nil {
		bg := *s.Background
		out.Background = &bg
	}
	out.Layers = make([]TextLayer, len(s.Layers))
	for i, l := range s.Layers {
		out.Layers[i] = l.Clone()
	}
	return out
}
