package dictionary

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and compiles a dictionary YAML file.
//
// Example:
//
//	id: hi-IN
//	display_name: Hindi
//	numerals: {"०": "0", "१": "1"}
//	replacements:
//	  कल: tomorrow
//	prompts:
//	  ask_team: यह किस टीम के लिए है?
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %q: %w", path, err)
	}
	defer f.Close()

	d, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("dictionary: parse %q: %w", path, err)
	}
	return d, nil
}

// LoadFromReader decodes one dictionary definition from r and compiles it.
func LoadFromReader(r io.Reader) (*Dictionary, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("dictionary: decode yaml: %w", err)
	}
	return New(def)
}

// LoadFiles loads every path in order and returns the compiled dictionaries.
// The first failure aborts loading.
func LoadFiles(paths []string) ([]*Dictionary, error) {
	out := make([]*Dictionary, 0, len(paths))
	for _, p := range paths {
		d, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
