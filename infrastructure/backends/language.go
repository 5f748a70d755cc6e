package backends

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// knownLanguages are matched by English name when a suite names a language
// instead of giving a BCP 47 tag.
var knownLanguages = []language.Tag{
	language.Arabic, language.Bulgarian, language.Czech, language.Danish,
	language.German, language.Greek, language.English, language.Spanish,
	language.Estonian, language.Persian, language.Finnish, language.French,
	language.Hebrew, language.Hindi, language.Croatian, language.Hungarian,
	language.Indonesian, language.Italian, language.Japanese, language.Korean,
	language.Lithuanian, language.Latvian, language.Dutch, language.Norwegian,
	language.Polish, language.Portuguese, language.Romanian, language.Russian,
	language.Slovak, language.Slovenian, language.Serbian, language.Swedish,
	language.Thai, language.Turkish, language.Ukrainian, language.Vietnamese,
	language.Chinese, language.SimplifiedChinese, language.TraditionalChinese,
}

// ParseLanguage accepts a BCP 47 tag ("fr", "pt-BR") or an English language
// name ("French").
func ParseLanguage(s string) (language.Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return language.Und, fmt.Errorf("empty language")
	}
	names := display.English.Languages()
	for _, tag := range knownLanguages {
		if strings.EqualFold(names.Name(tag), s) {
			return tag, nil
		}
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("unknown language %q: %w", s, err)
	}
	return tag, nil
}

// languageName renders s for an instruction prompt: tags become English
// names, anything else is used verbatim.
func languageName(s string) string {
	tag, err := ParseLanguage(s)
	if err != nil {
		return s
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return s
}
