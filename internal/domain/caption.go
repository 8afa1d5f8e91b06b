package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"
)

// MaxHashtags caps the suggested hashtags kept on a single result.
const MaxHashtags = 8

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return errors.New("failed to scan StringArray")
	}
	return json.Unmarshal(bytes, a)
}

// CaptionResult is one generated caption for a single tone.
type CaptionResult struct {
	Tone              string   `json:"tone"`
	Text              string   `json:"text"`
	CharacterCount    int      `json:"characterCount"`
	SuggestedHashtags []string `json:"suggestedHashtags"`
}

// NewCaptionResult builds a result and fixes CharacterCount to the rune length of text.
func NewCaptionResult(tone, text string, hashtags []string) CaptionResult {
	if hashtags == nil {
		hashtags = []string{}
	}
	return CaptionResult{
		Tone:              tone,
		Text:              text,
		CharacterCount:    utf8.RuneCountInString(text),
		SuggestedHashtags: hashtags,
	}
}

// CaptionResults is stored as a JSON column.
type CaptionResults []CaptionResult

// Value implements the driver.Valuer interface for database serialization.
func (r CaptionResults) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (r *CaptionResults) Scan(value interface{}) error {
	if value == nil {
		*r = CaptionResults{}
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return errors.New("failed to scan CaptionResults")
	}
	return json.Unmarshal(bytes, r)
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("unexpected column type")
	}
}

// CaptionRecord is a persisted generation: the request plus its results.
// Records are append-only; nothing mutates one after Create returns it.
type CaptionRecord struct {
	ID          string         `gorm:"type:text;primaryKey" json:"id"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Tones       StringArray    `gorm:"type:text;not null" json:"tones"`
	Results     CaptionResults `gorm:"type:text;not null" json:"results"`
	ImageURL    string         `gorm:"type:text" json:"imageUrl,omitempty"`
	CreatedAt   time.Time      `gorm:"index:idx_captions_created_at" json:"createdAt"`
}

// TableName returns the database table name for CaptionRecord.
func (CaptionRecord) TableName() string {
	return "captions"
}

// Clone returns a deep copy so callers never share slices with the store.
func (c *CaptionRecord) Clone() *CaptionRecord {
	if c == nil {
		return nil
	}
	out := *c
	out.Tones = append(StringArray(nil), c.Tones...)
	out.Results = make(CaptionResults, len(c.Results))
	for i, res := range c.Results {
		res.SuggestedHashtags = append([]string(nil), res.SuggestedHashtags...)
		if res.SuggestedHashtags == nil {
			res.SuggestedHashtags = []string{}
		}
		out.Results[i] = res
	}
	return &out
}

// NewCaption is the input to a store Create call. ID and CreatedAt are assigned by the store.
type NewCaption struct {
	Description string
	Tones       []string
	Results     []CaptionResult
	ImageURL    string
}
