// Package lang validates the language hint passed to the recognizer.
package lang

import (
	"fmt"
	"strings"
)

// Auto asks the recognizer to detect the language itself.
const Auto = "auto"

// names maps the ISO 639-1 codes accepted by both whisper.cpp and the
// OpenAI transcription API to their English names.
var names = map[string]string{
	"ar": "Arabic",
	"ca": "Catalan",
	"cs": "Czech",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"fa": "Persian",
	"fi": "Finnish",
	"fr": "French",
	"he": "Hebrew",
	"hi": "Hindi",
	"hu": "Hungarian",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sk": "Slovak",
	"sv": "Swedish",
	"th": "Thai",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

// Normalize lower-cases a language code and uses a hyphen as separator.
// "pt_BR", "PT-BR" -> "pt-br"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// BaseCode strips the region from a locale: "pt-BR" -> "pt".
// Both recognizers only understand base codes.
func BaseCode(code string) string {
	n := Normalize(code)
	if base, _, ok := strings.Cut(n, "-"); ok {
		return base
	}
	return n
}

// Validate checks that code is Auto or a supported language, optionally
// with a region suffix.
func Validate(code string) error {
	if code == "" {
		return fmt.Errorf("empty language code: %w", ErrInvalid)
	}
	if IsAuto(code) {
		return nil
	}
	if _, ok := names[BaseCode(code)]; !ok {
		return fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR', or 'auto'): %w",
			code, ErrInvalid)
	}
	return nil
}

// IsAuto reports whether code requests language detection.
func IsAuto(code string) bool {
	return Normalize(code) == Auto
}

// DisplayName returns the English name of the language, or the code
// itself when unknown.
func DisplayName(code string) string {
	if IsAuto(code) {
		return "auto-detected"
	}
	if name, ok := names[BaseCode(code)]; ok {
		return name
	}
	return code
}
