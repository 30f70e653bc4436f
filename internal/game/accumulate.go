package game

import (
	"fmt"
	"slices"
	"strings"
)

const (
	headerOne  = "So all that you want to bring is:"
	headerMany = "So all that you want to bring are:"
	nextPrompt = "And what else?"

	reasonMissedItems = "You didn't say all the previous items"
	reasonNoNewItem   = "You've only said the same items and forgot to add a new one"
)

var oneItemAtATime = []string{
	"Whoa, one thing at a time!",
	"Name just one item to start with.",
	"So, what do you want to bring?",
}

// Result is the outcome of a single game turn.
//
// Exactly one of the following holds: Continue is true and Words carries the
// replacement list for the game context; Rearm is true and the context is
// refreshed without touching its words; both are false and the turn is
// rejected with no context mutation at all. Lines is always the reply, one
// fulfillment message per entry.
type Result struct {
	Lines    []string
	Words    []string
	Continue bool
	Rearm    bool
}

// ContainsAll reports whether every word of prior also appears in next and
// next is at least as long as prior. The check is by value, not position, and
// deliberately one-directional: an empty prior list matches anything.
func ContainsAll(prior, next []string) bool {
	if len(next) < len(prior) {
		return false
	}
	for _, w := range prior {
		if !slices.Contains(next, w) {
			return false
		}
	}
	return true
}

// Advance applies the accumulation rule for one turn. prior is the word list
// carried over from earlier turns, next the words parsed from the current
// utterance, and query the normalized utterance echoed back on rejections.
func Advance(prior, next []string, query string) Result {
	if len(next) == 0 {
		return accept([]string{})
	}

	if !ContainsAll(prior, next) {
		return reject(reasonMissedItems, query, next)
	}

	required := len(prior) + 1
	switch {
	case len(prior) == 0 && len(next) > 1:
		return Result{Lines: oneItemAtATime, Rearm: true}
	case len(prior) == 0, len(next) == required:
		return accept(next)
	case len(next) == len(prior):
		return reject(reasonNoNewItem, query, next)
	default:
		// ContainsAll already ruled out next being shorter than prior, so
		// the only remaining case is an overshoot past required.
		extra := len(next) - required
		return reject(fmt.Sprintf("You've mentioned %d too many items", extra), query, next)
	}
}

func accept(words []string) Result {
	header := headerMany
	if len(words) == 1 {
		header = headerOne
	}

	lines := make([]string, 0, len(words)+2)
	lines = append(lines, header)
	for _, w := range words {
		lines = append(lines, fmt.Sprintf("%s %s,", article(w), w))
	}
	lines = append(lines, nextPrompt)

	return Result{Lines: lines, Words: words, Continue: true}
}

func reject(reason, query string, next []string) Result {
	lines := make([]string, 0, len(next)+2)
	lines = append(lines, reason, query)
	lines = append(lines, next...)
	return Result{Lines: lines}
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}
