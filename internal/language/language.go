package language

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Language is one of the translation languages the service supports.
// The wire value matches the capitalized English name ("Japanese", ...).
type Language string

const (
	Japanese Language = "Japanese"
	English  Language = "English"
	Chinese  Language = "Chinese"
)

// All lists the supported languages in a stable order.
var All = []Language{Japanese, English, Chinese}

// Default fonts applied to rewritten runs per target language. A font that
// covers the target script keeps the deck readable even when the original
// typeface has no glyphs for it.
var defaultFonts = map[Language]string{
	English:  "Arial",
	Japanese: "Meiryo UI",
	Chinese:  "Microsoft YaHei",
}

// FallbackFont is used when the target language has no mapping.
const FallbackFont = "Arial"

// DefaultFont returns the replacement typeface for the language.
func (l Language) DefaultFont() string {
	if f, ok := defaultFonts[l]; ok {
		return f
	}
	return FallbackFont
}

func (l Language) String() string { return string(l) }

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	switch l {
	case Japanese, English, Chinese:
		return true
	}
	return false
}

// Parse resolves a wire value ("Japanese") or a short code ("ja") to a Language.
func Parse(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "japanese", "ja", "jp":
		return Japanese, nil
	case "english", "en":
		return English, nil
	case "chinese", "zh", "zh-hans":
		return Chinese, nil
	}
	return "", fmt.Errorf("unsupported language: %q", s)
}

// UnmarshalJSON accepts the same spellings as Parse.
func (l *Language) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
