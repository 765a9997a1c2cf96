// Package transcript rewrites raw speech-recognition output into the
// canonical English-like form the date/time phrase parser understands.
//
// Normalisation is a fixed four-step pipeline driven entirely by a
// [dictionary.Dictionary]:
//
//  1. Lower-case (and NFC-compose) the input.
//  2. Replace native numeral glyphs with ASCII digits.
//  3. Apply phrase replacements, longest key first.
//  4. Repair "<n> <unit> for" into "for <n> <unit>" for languages that place
//     the preposition after the quantity.
//
// Every function in this package is pure and safe for concurrent use.
package transcript

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/MrWong99/voxbook/internal/dictionary"
)

// durationRepair matches a quantity followed by a unit and a trailing "for".
var durationRepair = regexp.MustCompile(`(\d+)\s+(days|hours|minutes)\s+for\b`)

// Normalize returns the canonical form of text under d. A nil dictionary
// skips the numeral and phrase steps.
func Normalize(text string, d *dictionary.Dictionary) string {
	out := norm.NFC.String(strings.ToLower(text))
	if d != nil {
		out = d.ReplaceNumerals(out)
		for _, r := range d.Replacements() {
			out = strings.ReplaceAll(out, r.From, r.To)
		}
	}
	return RepairDurations(out)
}

// RepairDurations rewrites every "<n> days|hours|minutes for" into
// "for <n> <unit>". Text without the pattern is returned unchanged.
func RepairDurations(text string) string {
	return durationRepair.ReplaceAllString(text, "for $1 $2")
}
