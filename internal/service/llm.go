package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/timmy/captionly/internal/domain"
)

// CaptionModel is a language model that writes one caption per call.
type CaptionModel interface {
	// Name identifies the provider in logs and errors.
	Name() string
	// GenerateCaption sends the rendered prompt and, when set, the image.
	GenerateCaption(ctx context.Context, prompt string, image *domain.ImageInput) (*ModelCaption, error)
}

// ModelCaption is the JSON payload a model is asked to return.
type ModelCaption struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// parseModelCaption extracts the first JSON object from the model output.
// Reasoning blocks and markdown fences around the object are ignored.
// An empty caption is not an error here.
func parseModelCaption(content string) (*ModelCaption, error) {
	if start := strings.Index(content, "<think>"); start != -1 {
		if end := strings.Index(content, "</think>"); end != -1 && end > start {
			content = content[end+len("</think>"):]
		}
	}

	jsonStart := strings.Index(content, "{")
	if jsonStart == -1 {
		return nil, fmt.Errorf("no JSON found in response")
	}

	depth := 0
	inString := false
	escaped := false
	jsonEnd := -1
scan:
	for i := jsonStart; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				jsonEnd = i + 1
				break scan
			}
		}
	}
	if jsonEnd == -1 {
		return nil, fmt.Errorf("incomplete JSON in response")
	}

	var out ModelCaption
	if err := json.Unmarshal([]byte(content[jsonStart:jsonEnd]), &out); err != nil {
		return nil, fmt.Errorf("failed to parse caption JSON: %w", err)
	}
	out.Caption = strings.TrimSpace(out.Caption)
	out.Hashtags = normalizeHashtags(out.Hashtags)
	return &out, nil
}

// normalizeHashtags trims, prefixes '#', drops empties and duplicates, and caps the list.
func normalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		tag = strings.TrimLeft(tag, "#")
		if tag == "" {
			continue
		}
		tag = "#" + strings.Join(strings.Fields(tag), "")
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
		if len(out) == domain.MaxHashtags {
			break
		}
	}
	return out
}

// isTransportError reports whether err means the provider could not be reached.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
