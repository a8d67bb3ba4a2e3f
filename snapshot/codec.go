package snapshot

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Encode writes s as indented JSON
func Encode(w io.Writer, s *State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(err, "Can't encode snapshot")
	}
	return nil
}

// Decode reads a State written by Encode
func Decode(r io.Reader) (*State, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	s := &State{}
	if err := dec.Decode(s); err != nil {
		return nil, errors.Wrap(err, "Can't decode snapshot")
	}
	if s.Version != FormatVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, want %d", s.Version, FormatVersion)
	}
	return s, nil
}
