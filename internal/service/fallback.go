package service

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/timmy/captionly/internal/domain"
	"github.com/timmy/captionly/internal/tone"
)

// DefaultKeywordPhrase is used when no keyword survives extraction.
const DefaultKeywordPhrase = "this moment"

const maxKeywords = 3

var stopWords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "before": true,
	"from": true, "have": true, "here": true, "into": true, "just": true,
	"like": true, "some": true, "that": true, "their": true, "them": true,
	"there": true, "these": true, "they": true, "this": true, "very": true,
	"were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "will": true, "with": true, "your": true, "image": true,
	"picture": true, "photo": true,
}

// Base hashtags lead every fallback set.
var baseHashtags = []string{"#content", "#creative", "#inspiration"}

// genericHashtags are used when no context keyword matches.
var genericHashtags = []string{"#lifestyle", "#daily", "#moments"}

const (
	maxToneHashtags    = 2
	maxContextHashtags = 3
)

// contextTagGroups are matched, in order, as substrings of the lowercased description.
var contextTagGroups = []struct {
	keyword string
	tags    []string
}{
	{"sunset", []string{"#sunset", "#goldenhour", "#skylovers"}},
	{"coffee", []string{"#coffee", "#morning", "#coffeelover"}},
	{"nature", []string{"#nature", "#outdoors", "#naturelovers"}},
	{"food", []string{"#food", "#foodie", "#delicious"}},
	{"travel", []string{"#travel", "#wanderlust", "#explore"}},
	{"photo", []string{"#photography", "#photooftheday", "#picoftheday"}},
	{"beach", []string{"#beach", "#ocean", "#summer"}},
	{"city", []string{"#city", "#urban", "#citylife"}},
}

// FallbackGenerator writes template captions when the model is unavailable.
// It never fails.
type FallbackGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackGenerator seeds template selection; seed 0 uses the clock.
func NewFallbackGenerator(seed uint64) *FallbackGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &FallbackGenerator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate returns a caption text and hashtags for the tone. Unknown tones use the default tone.
func (g *FallbackGenerator) Generate(description, toneID string) (string, []string) {
	def := tone.Resolve(toneID)
	keyword := ExtractKeywords(description)

	g.mu.Lock()
	template := def.Templates[g.rng.IntN(len(def.Templates))]
	emoji := def.Emojis[g.rng.IntN(len(def.Emojis))]
	g.mu.Unlock()

	text := strings.NewReplacer("{keyword}", keyword, "{emoji}", emoji).Replace(template)
	return capitalizeFirst(text), FallbackHashtags(description, def)
}

// Result wraps Generate into a CaptionResult for the requested tone id.
func (g *FallbackGenerator) Result(description, toneID string) domain.CaptionResult {
	text, tags := g.Generate(description, toneID)
	return domain.NewCaptionResult(toneID, text, tags)
}

// ExtractKeywords returns up to three significant words of the description joined by spaces.
func ExtractKeywords(description string) string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(description)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if utf8.RuneCountInString(w) <= 3 || stopWords[w] {
			continue
		}
		words = append(words, w)
		if len(words) == maxKeywords {
			break
		}
	}
	if len(words) == 0 {
		return DefaultKeywordPhrase
	}
	return strings.Join(words, " ")
}

// FallbackHashtags builds base + tone + context hashtags, capped at domain.MaxHashtags.
func FallbackHashtags(description string, def tone.Definition) []string {
	tags := make([]string, 0, domain.MaxHashtags)
	tags = append(tags, baseHashtags...)

	toneTags := def.Hashtags
	if len(toneTags) > maxToneHashtags {
		toneTags = toneTags[:maxToneHashtags]
	}
	tags = append(tags, toneTags...)

	tags = append(tags, contextHashtags(description)...)

	if len(tags) > domain.MaxHashtags {
		tags = tags[:domain.MaxHashtags]
	}
	return tags
}

func contextHashtags(description string) []string {
	lower := strings.ToLower(description)
	var matched []string
	for _, group := range contextTagGroups {
		if strings.Contains(lower, group.keyword) {
			matched = append(matched, group.tags...)
		}
		if len(matched) >= maxContextHashtags {
			break
		}
	}
	if len(matched) == 0 {
		return append([]string(nil), genericHashtags...)
	}
	if len(matched) > maxContextHashtags {
		matched = matched[:maxContextHashtags]
	}
	return matched
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
