package line

// Bubble is a single flex container.
type Bubble struct {
	Type   string     `json:"type"`
	Size   string     `json:"size,omitempty"`
	Hero   *Component `json:"hero,omitempty"`
	Header *Component `json:"header,omitempty"`
	Body   *Component `json:"body,omitempty"`
	Footer *Component `json:"footer,omitempty"`
}

// Carousel is a horizontally scrolling list of bubbles.
type Carousel struct {
	Type     string   `json:"type"`
	Contents []Bubble `json:"contents"`
}

// Component covers the box, text, image, button and separator flex
// components. Unused fields are omitted.
type Component struct {
	Type            string      `json:"type"`
	Layout          string      `json:"layout,omitempty"`
	Contents        []Component `json:"contents,omitempty"`
	Text            string      `json:"text,omitempty"`
	URL             string      `json:"url,omitempty"`
	Size            string      `json:"size,omitempty"`
	AspectRatio     string      `json:"aspectRatio,omitempty"`
	AspectMode      string      `json:"aspectMode,omitempty"`
	Weight          string      `json:"weight,omitempty"`
	Color           string      `json:"color,omitempty"`
	Align           string      `json:"align,omitempty"`
	Wrap            bool        `json:"wrap,omitempty"`
	Margin          string      `json:"margin,omitempty"`
	Spacing         string      `json:"spacing,omitempty"`
	Style           string      `json:"style,omitempty"`
	Height          string      `json:"height,omitempty"`
	PaddingAll      string      `json:"paddingAll,omitempty"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	Action          *Action     `json:"action,omitempty"`
}

func NewBubble() Bubble {
	return Bubble{Type: "bubble"}
}

func NewCarousel(bubbles []Bubble) Carousel {
	return Carousel{Type: "carousel", Contents: bubbles}
}
