package service

import (
	"reflect"
	"strings"
	"testing"

	"github.com/timmy/captionly/internal/domain"
	"github.com/timmy/captionly/internal/tone"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"drops short words", "A steaming cup of coffee on a rustic wooden table", "steaming coffee rustic"},
		{"trims punctuation and case", "Sunset, over the BEACH!", "sunset over beach"},
		{"drops stop words", "this photo with their dog", DefaultKeywordPhrase},
		{"nothing left", "a b c to me", DefaultKeywordPhrase},
		{"empty", "", DefaultKeywordPhrase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractKeywords(tt.description); got != tt.want {
				t.Errorf("ExtractKeywords(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestFallbackHashtags(t *testing.T) {
	tests := []struct {
		name        string
		description string
		tone        tone.ID
		want        []string
	}{
		{
			name:        "coffee context",
			description: "A steaming cup of coffee on a rustic wooden table",
			tone:        tone.Witty,
			want:        []string{"#content", "#creative", "#inspiration", "#witty", "#humor", "#coffee", "#morning", "#coffeelover"},
		},
		{
			name:        "sunset context",
			description: "Golden sunset over the calm ocean waves",
			tone:        tone.Poetic,
			want:        []string{"#content", "#creative", "#inspiration", "#poetry", "#aesthetic", "#sunset", "#goldenhour", "#skylovers"},
		},
		{
			name:        "generic context",
			description: "My grandmother knitting a scarf by the window",
			tone:        tone.Professional,
			want:        []string{"#content", "#creative", "#inspiration", "#professional", "#business", "#lifestyle", "#daily", "#moments"},
		},
		{
			name:        "first matching groups win",
			description: "Street food in the city at sunset",
			tone:        tone.Casual,
			want:        []string{"#content", "#creative", "#inspiration", "#goodvibes", "#everyday", "#sunset", "#goldenhour", "#skylovers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, _ := tone.Lookup(string(tt.tone))
			got := FallbackHashtags(tt.description, def)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FallbackHashtags() = %v, want %v", got, tt.want)
			}
			if len(got) > domain.MaxHashtags {
				t.Errorf("got %d hashtags, max is %d", len(got), domain.MaxHashtags)
			}
		})
	}
}

func TestFallbackGenerator_Generate(t *testing.T) {
	g := NewFallbackGenerator(42)
	description := "A steaming cup of coffee on a rustic wooden table"

	for _, def := range tone.All() {
		t.Run(string(def.ID), func(t *testing.T) {
			for i := 0; i < 20; i++ {
				text, tags := g.Generate(description, string(def.ID))
				if text == "" {
					t.Fatal("expected non-empty text")
				}
				if strings.Contains(text, "{keyword}") || strings.Contains(text, "{emoji}") {
					t.Fatalf("unsubstituted placeholder in %q", text)
				}
				if !strings.Contains(strings.ToLower(text), "steaming coffee rustic") {
					t.Errorf("expected keyword phrase in %q", text)
				}
				if len(tags) == 0 || len(tags) > domain.MaxHashtags {
					t.Errorf("unexpected hashtag count %d", len(tags))
				}
				for _, tag := range tags {
					if !strings.HasPrefix(tag, "#") {
						t.Errorf("hashtag %q missing '#'", tag)
					}
				}
			}
		})
	}
}

func TestFallbackGenerator_SameSeedSameOutput(t *testing.T) {
	a := NewFallbackGenerator(7)
	b := NewFallbackGenerator(7)

	for i := 0; i < 10; i++ {
		ta, _ := a.Generate("Golden sunset over the calm ocean waves", "poetic")
		tb, _ := b.Generate("Golden sunset over the calm ocean waves", "poetic")
		if ta != tb {
			t.Fatalf("iteration %d: %q != %q", i, ta, tb)
		}
	}
}

func TestFallbackGenerator_UnknownToneUsesDefault(t *testing.T) {
	g := NewFallbackGenerator(1)
	_, tags := g.Generate("Golden sunset over the calm ocean waves", "sarcastic")

	def := tone.Resolve(string(tone.Default))
	if tags[3] != def.Hashtags[0] {
		t.Errorf("expected default tone tags, got %v", tags)
	}

	result := g.Result("Golden sunset over the calm ocean waves", "sarcastic")
	if result.Tone != "sarcastic" {
		t.Errorf("result tone = %q, want requested id", result.Tone)
	}
}

func TestCapitalizeFirst(t *testing.T) {
	tests := map[string]string{
		"sunset over beach": "Sunset over beach",
		"Already":           "Already",
		"":                  "",
		"✨ sparkle":         "✨ sparkle",
	}
	for in, want := range tests {
		if got := capitalizeFirst(in); got != want {
			t.Errorf("capitalizeFirst(%q) = %q, want %q", in, got, want)
		}
	}
}
