package session

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Intent is what an inbound message asks for.
type Intent int

const (
	IntentText Intent = iota
	IntentStart
	IntentHelp
)

const (
	CommandStart = "/start"
	CommandLogin = "/login"
	CommandHelp  = "/help"
)

var commands = map[string]Intent{
	CommandStart: IntentStart,
	CommandLogin: IntentStart,
	CommandHelp:  IntentHelp,
}

// maxSuggestDistance bounds how far a typo may be from a real command.
const maxSuggestDistance = 2

// Classify maps a message to an intent. Only the exact command words are
// triggers; the match ignores case, trailing arguments and a Telegram
// "@botname" suffix.
func Classify(text string) Intent {
	if intent, ok := commands[commandWord(text)]; ok {
		return intent
	}
	return IntentText
}

// Suggest returns the known command closest to a mistyped one, if any.
func Suggest(text string) (string, bool) {
	word := commandWord(text)
	if word == "" || len(word) < 2 {
		return "", false
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, cmd := range []string{CommandStart, CommandHelp, CommandLogin} {
		if d := levenshtein.ComputeDistance(word, cmd); d < bestDist {
			best, bestDist = cmd, d
		}
	}
	if best == "" || bestDist == 0 {
		return "", false
	}
	return best, true
}

// commandWord returns the lower-cased leading "/word" of text, or "".
func commandWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	word, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(word)
}
