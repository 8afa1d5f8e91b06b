package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/timmy/captionly/internal/domain"
)

const (
	// MinDescriptionLength is counted in characters after trimming.
	MinDescriptionLength = 10
	MinTones             = 1
	MaxTones             = 3
)

// Validation messages surfaced to clients.
const (
	MsgDescriptionRequired = "Description is required"
	MsgDescriptionTooShort = "Description must be at least 10 characters"
	MsgTonesMin            = "Select at least one tone"
	MsgTonesMax            = "Select up to 3 tones"
	MsgToneEmpty           = "Tone must be a non-empty string"
	MsgToneDuplicate       = "Tones must be distinct"
	MsgTonesMalformed      = "Tones must be a JSON array of strings"
	MsgImageNotImage       = "Only image files are allowed"
)

// RawGenerationRequest is an unvalidated request as decoded by a transport.
// DecodeErrors carries problems found while decoding (bad JSON, bad base64);
// fields with a decode error are not checked further.
type RawGenerationRequest struct {
	Description  string
	Tones        []string
	Image        *domain.ImageInput
	DecodeErrors []domain.FieldError
}

// Validator checks generation requests before any external call is made.
type Validator struct {
	maxImageBytes int64
}

// NewValidator creates a validator with the given inclusive image size limit.
func NewValidator(maxImageBytes int64) *Validator {
	return &Validator{maxImageBytes: maxImageBytes}
}

// MaxImageBytes returns the inclusive image size limit.
func (v *Validator) MaxImageBytes() int64 {
	return v.maxImageBytes
}

// ImageTooLargeMessage is the violation reported for an oversize image.
func (v *Validator) ImageTooLargeMessage() string {
	return fmt.Sprintf("Image must be %s or smaller", formatBytes(v.maxImageBytes))
}

// Validate returns the validated request or a *domain.ValidationError listing
// every violated constraint.
func (v *Validator) Validate(raw RawGenerationRequest) (*domain.GenerationRequest, error) {
	verr := &domain.ValidationError{}
	skip := make(map[string]bool, len(raw.DecodeErrors))
	for _, fe := range raw.DecodeErrors {
		verr.Add(fe.Field, fe.Message)
		skip[fe.Field] = true
	}

	description := strings.TrimSpace(raw.Description)
	if !skip["description"] {
		switch {
		case description == "":
			verr.Add("description", MsgDescriptionRequired)
		case utf8.RuneCountInString(description) < MinDescriptionLength:
			verr.Add("description", MsgDescriptionTooShort)
		}
	}

	tones := make([]string, 0, len(raw.Tones))
	if !skip["tones"] {
		switch {
		case len(raw.Tones) < MinTones:
			verr.Add("tones", MsgTonesMin)
		case len(raw.Tones) > MaxTones:
			verr.Add("tones", MsgTonesMax)
		}
		seen := make(map[string]bool, len(raw.Tones))
		for i, t := range raw.Tones {
			t = strings.TrimSpace(t)
			field := fmt.Sprintf("tones[%d]", i)
			if t == "" {
				verr.Add(field, MsgToneEmpty)
				continue
			}
			key := strings.ToLower(t)
			if seen[key] {
				verr.Add(field, MsgToneDuplicate)
				continue
			}
			seen[key] = true
			tones = append(tones, t)
		}
	}

	if raw.Image != nil && !skip["image"] {
		if int64(raw.Image.Size()) > v.maxImageBytes {
			verr.Add("image", v.ImageTooLargeMessage())
		}
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw.Image.MIMEType)), "image/") {
			verr.Add("image", MsgImageNotImage)
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}

	return &domain.GenerationRequest{
		Description: description,
		Tones:       tones,
		Image:       raw.Image,
	}, nil
}

// DecodeTones parses the multipart form of the tones field: either a single
// JSON array string or repeated plain values.
func DecodeTones(values []string) ([]string, error) {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var tones []string
		if err := json.Unmarshal([]byte(values[0]), &tones); err != nil {
			return nil, fmt.Errorf("decode tones: %w", err)
		}
		return tones, nil
	}
	return values, nil
}

func formatBytes(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
