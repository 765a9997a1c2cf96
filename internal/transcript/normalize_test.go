package transcript_test

import (
	"strings"
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/MrWong99/voxbook/internal/dictionary"
	"github.com/MrWong99/voxbook/internal/transcript"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	store := dictionary.NewStore()
	gu := store.Get("gu-IN")
	en := store.Get("en-US")

	tests := []struct {
		name string
		text string
		dict *dictionary.Dictionary
		want string
	}{
		{name: "english lowercases", text: "Book Marketing Tomorrow", dict: en, want: "book marketing tomorrow"},
		{name: "english duration untouched", text: "meeting for 2 hours", dict: en, want: "meeting for 2 hours"},
		{name: "gujarati hours", text: "૨ કલાક", dict: gu, want: "2 hours"},
		{name: "gujarati duration repair", text: "૨ કલાક માટે", dict: gu, want: "for 2 hours"},
		{name: "gujarati next week beats next", text: "આવતા અઠવાડિયે", dict: gu, want: "next week"},
		{name: "gujarati suffixed weekday", text: "સોમવારે", dict: gu, want: "Monday"},
		{name: "nil dictionary", text: "3 Days For", dict: nil, want: "for 3 days"},
		{name: "empty", text: "", dict: en, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := transcript.Normalize(tt.text, tt.dict); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalize_NumeralsBecomeASCII(t *testing.T) {
	t.Parallel()

	gu := dictionary.NewStore().Get("gu-IN")
	got := transcript.Normalize("૦૧૨૩૪૫૬૭૮૯", gu)
	if got != "0123456789" {
		t.Errorf("Normalize = %q, want 0123456789", got)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	t.Parallel()

	gu := dictionary.NewStore().Get("gu-IN")
	const in = "કાલે બપોરે ૩ વાગ્યે ૨ કલાક માટે મીટીંગ"
	first := transcript.Normalize(in, gu)
	for range 50 {
		if got := transcript.Normalize(in, gu); got != first {
			t.Fatalf("Normalize not deterministic: %q vs %q", got, first)
		}
	}
	for _, want := range []string{"tomorrow", "pm 3", "for 2 hours"} {
		if !strings.Contains(strings.ToLower(first), want) {
			t.Errorf("Normalize(%q) = %q, missing %q", in, first, want)
		}
	}
}

func TestNormalize_DecomposedInputMatches(t *testing.T) {
	t.Parallel()

	d, err := dictionary.New(dictionary.Definition{
		ID:           "test",
		Replacements: map[string]string{"café": "cafe"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	decomposed := norm.NFD.String("café")
	if got := transcript.Normalize(decomposed, d); got != "cafe" {
		t.Errorf("Normalize(NFD café) = %q, want cafe", got)
	}
}

func TestRepairDurations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"tomorrow 3 days for", "tomorrow for 3 days"},
		{"10 minutes for standup", "for 10 minutes standup"},
		{"2 hours before", "2 hours before"},
		{"1 day for", "1 day for"},
	}
	for _, tt := range tests {
		if got := transcript.RepairDurations(tt.in); got != tt.want {
			t.Errorf("RepairDurations(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizer_NormalizeFor(t *testing.T) {
	t.Parallel()

	n := transcript.NewNormalizer(nil)
	if got := n.NormalizeFor("કાલે", "gu-IN"); got != "tomorrow" {
		t.Errorf("NormalizeFor(gu-IN) = %q, want tomorrow", got)
	}
	if got := n.NormalizeFor("કાલે", "xx-XX"); got != "કાલે" {
		t.Errorf("NormalizeFor(unknown) = %q, want input unchanged", got)
	}
}
