package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
	localeGerman  locale = "de"
)

type messages struct {
	errorTitle string
	errorText  string
}

var catalog = map[locale]messages{
	localeEnglish: {
		errorTitle: "Voice capture failed",
		errorText:  "Something went wrong while processing your recording",
	},
	localeGerman: {
		errorTitle: "Sprachaufnahme fehlgeschlagen",
		errorText:  "Bei der Verarbeitung der Aufnahme ist ein Fehler aufgetreten",
	},
}

// indicatorMessagesFromEnv follows the POSIX precedence LC_ALL, LC_MESSAGES, LANG.
func indicatorMessagesFromEnv() messages {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			return indicatorMessages(resolveLocale(raw))
		}
	}
	return indicatorMessages(localeEnglish)
}

// resolveLocale reduces values like "de_DE.UTF-8" to a catalog key.
func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(raw, "_.@-"); i >= 0 {
		raw = raw[:i]
	}
	if _, ok := catalog[locale(raw)]; ok {
		return locale(raw)
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	if msg, ok := catalog[tag]; ok {
		return msg
	}
	return catalog[localeEnglish]
}
