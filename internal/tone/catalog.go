// Package tone holds the static catalog of caption tones.
package tone

import "strings"

// ID identifies a known tone.
type ID string

const (
	Witty        ID = "witty"
	Poetic       ID = "poetic"
	Professional ID = "professional"
	Casual       ID = "casual"
)

// Default is the tone used for identifiers the catalog does not know.
const Default = Casual

// Definition describes how a tone is prompted and how the local fallback writes it.
// Templates use {keyword} and {emoji} placeholders.
type Definition struct {
	ID          ID
	Instruction string
	Emojis      []string
	Hashtags    []string
	Templates   []string
}

var order = []ID{Witty, Poetic, Professional, Casual}

var catalog = map[ID]Definition{
	Witty: {
		ID:          Witty,
		Instruction: "Create a witty, clever caption with humor and personality. Keep it engaging and shareable.",
		Emojis:      []string{"😏", "😂", "🤓", "😎", "🙃"},
		Hashtags:    []string{"#witty", "#humor", "#funny", "#lol"},
		Templates: []string{
			"When {keyword} hits different and you have zero chill about it {emoji}",
			"Plot twist: {keyword} was the main character all along {emoji}",
			"Me, pretending I'm not obsessed with {keyword}. Nailed it {emoji}",
			"Professional {keyword} enthusiast. Amateur at everything else {emoji}",
		},
	},
	Poetic: {
		ID:          Poetic,
		Instruction: "Write a poetic, artistic caption with beautiful imagery and metaphors. Make it inspiring and thoughtful.",
		Emojis:      []string{"✨", "🌙", "🌸", "🍃", "🌅"},
		Hashtags:    []string{"#poetry", "#aesthetic", "#dreamy", "#soulful"},
		Templates: []string{
			"In the quiet hush of {keyword}, the world remembers how to breathe {emoji}",
			"Some stories are written in ink, others in {keyword} and light {emoji}",
			"{keyword}, a soft verse the day whispers before it fades {emoji}",
			"Let {keyword} be the poem you didn't know you needed {emoji}",
		},
	},
	Professional: {
		ID:          Professional,
		Instruction: "Generate a professional, polished caption suitable for business or formal contexts. Keep it sophisticated yet approachable.",
		Emojis:      []string{"📈", "💼", "✅", "🎯", "🤝"},
		Hashtags:    []string{"#professional", "#business", "#quality", "#excellence"},
		Templates: []string{
			"Excellence lives in the details. Today's focus: {keyword} {emoji}",
			"Bringing intention and craft to {keyword}, every single day {emoji}",
			"Great results start with a clear vision, and {keyword} is ours {emoji}",
			"Quality you can see. A closer look at {keyword} {emoji}",
		},
	},
	Casual: {
		ID:          Casual,
		Instruction: "Create a casual, friendly caption that feels natural and conversational. Make it relatable and authentic.",
		Emojis:      []string{"😊", "🙌", "☀️", "👋", "💛"},
		Hashtags:    []string{"#goodvibes", "#everyday", "#chill", "#relatable"},
		Templates: []string{
			"Just a little {keyword} to brighten the day {emoji}",
			"Currently loving {keyword}, no notes {emoji}",
			"{keyword} kind of mood today {emoji}",
			"Taking it easy with some {keyword} {emoji}",
		},
	},
}

// Lookup returns the definition for id. The second value is false when id is
// unknown, in which case the Default definition is returned.
func Lookup(id string) (Definition, bool) {
	def, ok := catalog[ID(normalize(id))]
	if !ok {
		return catalog[Default], false
	}
	return def, true
}

// Resolve returns the definition for id, falling back to Default.
func Resolve(id string) Definition {
	def, _ := Lookup(id)
	return def
}

// Known reports whether id names a catalog tone.
func Known(id string) bool {
	_, ok := catalog[ID(normalize(id))]
	return ok
}

// All returns every definition in display order.
func All() []Definition {
	out := make([]Definition, 0, len(order))
	for _, id := range order {
		out = append(out, catalog[id])
	}
	return out
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
