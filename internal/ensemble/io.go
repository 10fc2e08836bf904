package ensemble

import (
	"encoding/json"
	"io"
)

// Load reads an ensemble written by Save.
func Load(r io.Reader) (*Ensemble, error) {
	var e Ensemble
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Save writes e as indented JSON.
func Save(w io.Writer, e *Ensemble) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
