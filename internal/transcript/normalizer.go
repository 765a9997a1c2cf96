package transcript

import "github.com/MrWong99/voxbook/internal/dictionary"

// Normalizer binds [Normalize] to a dictionary store so callers can select
// the dictionary by language code.
type Normalizer struct {
	store *dictionary.Store
}

// NewNormalizer returns a Normalizer backed by store. A nil store uses the
// built-in dictionaries.
func NewNormalizer(store *dictionary.Store) *Normalizer {
	if store == nil {
		store = dictionary.NewStore()
	}
	return &Normalizer{store: store}
}

// NormalizeFor normalises text with the dictionary registered for lang,
// falling back to the store's default language.
func (n *Normalizer) NormalizeFor(text, lang string) string {
	return Normalize(text, n.store.Get(lang))
}

// Store returns the dictionary store the normalizer reads from.
func (n *Normalizer) Store() *dictionary.Store {
	return n.store
}
