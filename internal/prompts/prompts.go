package prompts

import (
	"fmt"
	"strings"

	"github.com/timmy/captionly/internal/tone"
)

// ============================================================================
// Caption Prompts (LLM)
// ============================================================================

// CaptionSystemPrompt defines the role and the JSON response contract.
const CaptionSystemPrompt = `You are an expert social media caption writer. Generate engaging, platform-ready captions based on the description and tone provided. Respond with JSON in this format: { "caption": string, "hashtags": string[] }`

// captionUserTemplate is filled with the tone instruction, the scene description and the tone name.
const captionUserTemplate = `%s

Image/Scene Description: %s

Generate a caption that:
- Matches the %s tone perfectly
- Is optimized for social media platforms
- Includes 3-5 relevant hashtags
- Is between 50-200 characters
- Captures the essence of the described scene

Please respond with JSON containing 'caption' and 'hashtags' fields.`

// ImageHint is appended when the request carries an image.
const ImageHint = `An image of the scene is attached. Use what you see in it together with the description.`

// BuildCaptionPrompt renders the user prompt for one tone.
// requestedTone is the identifier the caller sent; def is its resolved definition.
func BuildCaptionPrompt(def tone.Definition, requestedTone, description string, withImage bool) string {
	name := strings.TrimSpace(requestedTone)
	if name == "" {
		name = string(def.ID)
	}
	prompt := fmt.Sprintf(captionUserTemplate, def.Instruction, strings.TrimSpace(description), name)
	if withImage {
		prompt += "\n\n" + ImageHint
	}
	return prompt
}
