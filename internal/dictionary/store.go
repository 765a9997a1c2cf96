package dictionary

import (
	"cmp"
	"slices"
	"sync"
)

// Info is the listing entry for one registered dictionary.
type Info struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Option configures a [Store].
type Option func(*Store)

// WithDefaultLanguage sets the fallback language code. Default: [DefaultLanguage].
func WithDefaultLanguage(code string) Option {
	return func(s *Store) {
		if code != "" {
			s.fallback = code
		}
	}
}

// WithDictionaries registers additional dictionaries after the built-ins.
// A dictionary with a built-in ID replaces the built-in table.
func WithDictionaries(ds ...*Dictionary) Option {
	return func(s *Store) {
		s.extra = append(s.extra, ds...)
	}
}

// WithoutBuiltins skips registration of the built-in tables.
func WithoutBuiltins() Option {
	return func(s *Store) {
		s.noBuiltins = true
	}
}

// Store selects dictionaries by language code. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	dicts      map[string]*Dictionary
	fallback   string
	extra      []*Dictionary
	noBuiltins bool
}

// NewStore returns a [Store] with the built-in dictionaries registered.
func NewStore(opts ...Option) *Store {
	s := &Store{
		dicts:    make(map[string]*Dictionary),
		fallback: DefaultLanguage,
	}
	for _, o := range opts {
		o(s)
	}
	if !s.noBuiltins {
		for _, d := range Builtin() {
			s.dicts[d.ID()] = d
		}
	}
	for _, d := range s.extra {
		s.dicts[d.ID()] = d
	}
	s.extra = nil
	s.fillPromptsLocked()
	return s
}

// Get returns the dictionary for code, falling back to the default language
// when code is unknown. Returns nil only when the store holds neither.
func (s *Store) Get(code string) *Dictionary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.dicts[code]; ok {
		return d
	}
	return s.dicts[s.fallback]
}

// Lookup returns the dictionary registered exactly under code.
func (s *Store) Lookup(code string) (*Dictionary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dicts[code]
	return d, ok
}

// Register adds or replaces a dictionary. Prompts missing from d are taken
// from the default language.
func (s *Store) Register(d *Dictionary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dicts[d.ID()] = d
	s.fillPromptsLocked()
}

// DefaultLanguage returns the fallback language code.
func (s *Store) DefaultLanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fallback
}

// Len returns the number of registered dictionaries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dicts)
}

// Languages lists the registered dictionaries ordered by ID.
func (s *Store) Languages() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Info, 0, len(s.dicts))
	for _, d := range s.dicts {
		out = append(out, Info{ID: d.ID(), DisplayName: d.DisplayName()})
	}
	slices.SortFunc(out, func(a, b Info) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) fillPromptsLocked() {
	fb := s.dicts[s.fallback]
	for id, d := range s.dicts {
		s.dicts[id] = d.withFallbackPrompts(fb)
	}
}
