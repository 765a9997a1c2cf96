// Package dictionary holds the static per-language tables used by the intake
// pipeline: numeral maps, phrase replacements and spoken/UI prompt strings.
//
// A [Dictionary] is pure data. It is compiled once by [New] and never changes
// afterwards, so it is safe for concurrent use. Adding a language requires
// only a new table (built in, or loaded from YAML via [LoadFile]); no other
// package changes.
package dictionary

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// PromptKey names a prompt string in a dictionary.
type PromptKey string

const (
	PromptListening   PromptKey = "listening"
	PromptProcessing  PromptKey = "processing"
	PromptAskTeam     PromptKey = "ask_team"
	PromptAskTitle    PromptKey = "ask_title"
	PromptAskConfirm  PromptKey = "ask_confirm"
	PromptSuccess     PromptKey = "success"
	PromptRetry       PromptKey = "retry"
	PromptMissingInfo PromptKey = "missing_info"
)

// PromptKeys lists every prompt key a complete dictionary defines.
var PromptKeys = []PromptKey{
	PromptListening, PromptProcessing, PromptAskTeam, PromptAskTitle,
	PromptAskConfirm, PromptSuccess, PromptRetry, PromptMissingInfo,
}

// Definition is the serialisable shape of a dictionary.
type Definition struct {
	// ID is the BCP-47 language code the dictionary is selected by (e.g. "gu-IN").
	ID string `yaml:"id" json:"id"`

	// DisplayName is the human-readable language name (e.g. "Gujarati").
	DisplayName string `yaml:"display_name" json:"display_name"`

	// Numerals maps a native digit glyph to its ASCII digit.
	Numerals map[string]string `yaml:"numerals,omitempty" json:"numerals,omitempty"`

	// Replacements maps a native phrase to its canonical English phrase.
	Replacements map[string]string `yaml:"replacements,omitempty" json:"replacements,omitempty"`

	// Prompts maps prompt keys to localized strings.
	Prompts map[PromptKey]string `yaml:"prompts,omitempty" json:"prompts,omitempty"`
}

// Replacement is a single phrase substitution.
type Replacement struct {
	From string
	To   string
}

// Dictionary is a compiled, immutable [Definition].
type Dictionary struct {
	id           string
	displayName  string
	numerals     map[string]string
	numeralRepl  *strings.Replacer
	replacements []Replacement
	prompts      map[PromptKey]string
}

// ErrInvalid is wrapped by [New] for every definition problem it finds.
var ErrInvalid = errors.New("dictionary: invalid definition")

// New validates def and compiles it into a [Dictionary].
//
// Numeral glyphs and replacement keys are NFC-normalised so that composed and
// decomposed spellings of the same text hit the same entry. Replacements are
// ordered longest key first (by rune count), ties broken by key, so that a
// short key never consumes part of a longer phrase before the longer phrase
// is tried.
func New(def Definition) (*Dictionary, error) {
	var errs []error
	if strings.TrimSpace(def.ID) == "" {
		errs = append(errs, fmt.Errorf("%w: id is required", ErrInvalid))
	}

	numerals := make(map[string]string, len(def.Numerals))
	pairs := make([]string, 0, 2*len(def.Numerals))
	for _, glyph := range slices.Sorted(maps.Keys(def.Numerals)) {
		digit := def.Numerals[glyph]
		if glyph == "" {
			errs = append(errs, fmt.Errorf("%w: %s: empty numeral glyph", ErrInvalid, def.ID))
			continue
		}
		if len(digit) != 1 || digit[0] < '0' || digit[0] > '9' {
			errs = append(errs, fmt.Errorf("%w: %s: numeral %q maps to %q, want a single ASCII digit", ErrInvalid, def.ID, glyph, digit))
			continue
		}
		g := norm.NFC.String(glyph)
		numerals[g] = digit
		pairs = append(pairs, g, digit)
	}

	repls := make([]Replacement, 0, len(def.Replacements))
	for from, to := range def.Replacements {
		if strings.TrimSpace(from) == "" {
			errs = append(errs, fmt.Errorf("%w: %s: empty replacement key", ErrInvalid, def.ID))
			continue
		}
		repls = append(repls, Replacement{From: norm.NFC.String(strings.ToLower(from)), To: to})
	}
	slices.SortFunc(repls, func(a, b Replacement) int {
		if c := cmp.Compare(utf8.RuneCountInString(b.From), utf8.RuneCountInString(a.From)); c != 0 {
			return c
		}
		return strings.Compare(a.From, b.From)
	})

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	d := &Dictionary{
		id:           def.ID,
		displayName:  def.DisplayName,
		numerals:     numerals,
		numeralRepl:  strings.NewReplacer(pairs...),
		replacements: repls,
		prompts:      maps.Clone(def.Prompts),
	}
	if d.displayName == "" {
		d.displayName = def.ID
	}
	if d.prompts == nil {
		d.prompts = make(map[PromptKey]string)
	}
	return d, nil
}

// MustNew is like [New] but panics on error. Used for built-in tables.
func MustNew(def Definition) *Dictionary {
	d, err := New(def)
	if err != nil {
		panic(err)
	}
	return d
}

// ID returns the language code.
func (d *Dictionary) ID() string { return d.id }

// DisplayName returns the human-readable language name.
func (d *Dictionary) DisplayName() string { return d.displayName }

// ReplaceNumerals substitutes every mapped native glyph in s with its ASCII digit.
func (d *Dictionary) ReplaceNumerals(s string) string {
	if len(d.numerals) == 0 {
		return s
	}
	return d.numeralRepl.Replace(s)
}

// Numerals returns a copy of the glyph→digit map.
func (d *Dictionary) Numerals() map[string]string {
	return maps.Clone(d.numerals)
}

// Replacements returns the phrase substitutions in application order.
func (d *Dictionary) Replacements() []Replacement {
	return slices.Clone(d.replacements)
}

// Prompt returns the prompt for key, or the empty string when undefined.
func (d *Dictionary) Prompt(key PromptKey) string {
	return d.prompts[key]
}

// Definition returns a serialisable copy of d.
func (d *Dictionary) Definition() Definition {
	def := Definition{
		ID:           d.id,
		DisplayName:  d.displayName,
		Numerals:     maps.Clone(d.numerals),
		Replacements: make(map[string]string, len(d.replacements)),
		Prompts:      maps.Clone(d.prompts),
	}
	for _, r := range d.replacements {
		def.Replacements[r.From] = r.To
	}
	return def
}

// withFallbackPrompts returns d, or a copy of d whose missing prompts are
// taken from fb.
func (d *Dictionary) withFallbackPrompts(fb *Dictionary) *Dictionary {
	if fb == nil || fb == d {
		return d
	}
	var missing bool
	for _, k := range PromptKeys {
		if d.prompts[k] == "" && fb.prompts[k] != "" {
			missing = true
			break
		}
	}
	if !missing {
		return d
	}
	cp := *d
	cp.prompts = maps.Clone(d.prompts)
	for _, k := range PromptKeys {
		if cp.prompts[k] == "" {
			cp.prompts[k] = fb.prompts[k]
		}
	}
	return &cp
}
