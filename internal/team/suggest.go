package team

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	phoneticThreshold = 0.70
	fuzzyThreshold    = 0.85
)

// Suggestion is a near-miss team for an answer that did not resolve.
type Suggestion struct {
	Team  Team
	Score float64
}

// Suggest finds the roster team that sounds most like answer, for use in a
// "did you mean" prompt. It never stands in for [Resolve]: the caller still
// requires a substring match before accepting a team.
//
// Candidates whose Double Metaphone codes overlap the answer's need a
// Jaro-Winkler score of 0.70; others need 0.85. Phonetic candidates always
// beat non-phonetic ones.
func Suggest(answer string, roster []Team) (Suggestion, bool) {
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" || len(roster) == 0 {
		return Suggestion{}, false
	}
	words := strings.Fields(answer)
	codes := metaphoneCodes(words)

	var (
		best         Suggestion
		bestPhonetic bool
		found        bool
	)
	for _, t := range roster {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" {
			continue
		}
		nameWords := strings.Fields(name)
		phonetic := overlaps(codes, metaphoneCodes(nameWords))
		score := similarity(words, nameWords, answer, name)

		switch {
		case phonetic && score >= phoneticThreshold:
			if !bestPhonetic || score > best.Score {
				best, bestPhonetic, found = Suggestion{Team: t, Score: score}, true, true
			}
		case !phonetic && !bestPhonetic && score >= fuzzyThreshold && score > best.Score:
			best, found = Suggestion{Team: t, Score: score}, true
		}
	}
	return best, found
}

func metaphoneCodes(words []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(words)*2)
	for _, w := range words {
		p, s := matchr.DoubleMetaphone(w)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func overlaps(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for c := range a {
		if _, ok := b[c]; ok {
			return true
		}
	}
	return false
}

// similarity is the best Jaro-Winkler score over the full strings, the
// space-stripped strings and every word pair.
func similarity(words, nameWords []string, full, name string) float64 {
	score := matchr.JaroWinkler(full, name, false)
	if len(words) > 1 || len(nameWords) > 1 {
		if s := matchr.JaroWinkler(strings.Join(words, ""), strings.Join(nameWords, ""), false); s > score {
			score = s
		}
	}
	for _, w := range words {
		for _, n := range nameWords {
			if s := matchr.JaroWinkler(w, n, false); s > score {
				score = s
			}
		}
	}
	return score
}
