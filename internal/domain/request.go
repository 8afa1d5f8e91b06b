package domain

// ImageInput is an uploaded image passed through to the caption model.
type ImageInput struct {
	Data     []byte
	MIMEType string
	Filename string
}

// Size returns the payload size in bytes.
func (i *ImageInput) Size() int {
	if i == nil {
		return 0
	}
	return len(i.Data)
}

// GenerationRequest is a validated caption generation request.
// Tones keep the order the caller asked for; results follow the same order.
type GenerationRequest struct {
	Description string
	Tones       []string
	Image       *ImageInput
}
