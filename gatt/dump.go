package gatt

import (
	"encoding/hex"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type attrDump struct {
	Handle string `json:"handle"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Props  string `json:"props"`
	Value  string `json:"value,omitempty"`
}

// Dump renders the attribute table as JSON, one row per handle. For
// inspection and tooling only; nothing on the wire uses this form.
func (s *Server) Dump() ([]byte, error) {
	rows := make([]attrDump, 0, len(s.attrs))
	for _, a := range s.Attributes() {
		v, _ := s.Value(a.Handle())
		rows = append(rows, attrDump{
			Handle: fmt.Sprintf("%#04x", a.Handle()),
			Type:   a.Type().String(),
			Name:   a.Name(),
			Props:  a.Props().String(),
			Value:  hex.EncodeToString(v),
		})
	}

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal attribute table")
	}
	return out, nil
}
