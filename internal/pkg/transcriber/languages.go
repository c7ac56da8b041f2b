package transcriber

import "strings"

var languageAliases = map[string]string{
	"english":    "en",
	"arabic":     "ar",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"chinese":    "zh",
	"hindi":      "hi",
	"portuguese": "pt",
}

//NormalizeLanguage maps user provided language names to ISO codes.
//Empty result means autodetect
func NormalizeLanguage(lang string) string {
	res := strings.ToLower(strings.TrimSpace(lang))
	if res == "" || res == "auto" || res == "detect" {
		return ""
	}
	if code, ok := languageAliases[res]; ok {
		return code
	}
	if len(res) == 2 {
		return res
	}
	for name, code := range languageAliases {
		if strings.HasPrefix(name, res) {
			return code
		}
	}
	return res
}
