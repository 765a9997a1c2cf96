package team

import (
	"strings"
	"unicode/utf8"
)

// Resolve returns the first team in roster whose name occurs in any of the
// transcript variants, compared case-insensitively. Roster order decides
// ties. Teams with blank names never match.
func Resolve(variants []string, roster []Team) (Team, bool) {
	lowered := make([]string, len(variants))
	for i, v := range variants {
		lowered[i] = strings.ToLower(v)
	}
	for _, t := range roster {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" {
			continue
		}
		for _, v := range lowered {
			if strings.Contains(v, name) {
				return t, true
			}
		}
	}
	return Team{}, false
}

// StripFirst removes the first case-insensitive occurrence of name from s.
// s is returned unchanged when name is blank or absent.
func StripFirst(s, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return s
	}
	i, j := indexFold(s, name)
	if i < 0 {
		return s
	}
	return s[:i] + s[j:]
}

// indexFold returns the byte span of the first case-insensitive occurrence
// of sub in s, or -1, -1.
func indexFold(s, sub string) (int, int) {
	n := utf8.RuneCountInString(sub)
	for i := range s {
		j, k := i, 0
		for k < n && j < len(s) {
			_, size := utf8.DecodeRuneInString(s[j:])
			j += size
			k++
		}
		if k < n {
			break
		}
		if strings.EqualFold(s[i:j], sub) {
			return i, j
		}
	}
	return -1, -1
}
