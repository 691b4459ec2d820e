package transcript

import "strings"

// languageMap maps short provider language codes to locale-qualified codes.
// Codes absent from the table pass through unchanged; there is no fallback
// inference.
var languageMap = map[string]string{
	"en":    "en-us",
	"en_us": "en-us",
	"en_uk": "en-gb",
	"nl":    "nl-nl",
	"de":    "de-de",
	"fr":    "fr-fr",
	"es":    "es-es",
}

// NormalizeLanguageCode maps a provider's short language code to a
// locale-qualified code. The lookup is case-insensitive; unmapped codes are
// returned as given.
func NormalizeLanguageCode(code string) string {
	if mapped, ok := languageMap[strings.ToLower(code)]; ok {
		return mapped
	}
	return code
}
