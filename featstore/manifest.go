package featstore

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hupe1980/featcache/model"
)

const (
	// ManifestFileName is the name of the manifest inside a store directory
	// or object prefix.
	ManifestFileName = "manifest.json"

	// CurrentVersion is the manifest format version written by this package.
	CurrentVersion = 1
)

// Manifest describes the on-disk (or in-bucket) layout of a column store:
// how many nodes it holds, which fields exist and how each column file is
// encoded.
type Manifest struct {
	Version  int             `json:"version"`
	NumNodes int             `json:"num_nodes"`
	Codec    string          `json:"codec"`
	Fields   []ManifestField `json:"fields"`
}

// ManifestField describes a single feature column.
type ManifestField struct {
	Name string `json:"name"`
	Dim  int    `json:"dim"`
}

// Schema builds the field schema described by the manifest.
func (m *Manifest) Schema() (*model.Schema, error) {
	specs := make([]model.FieldSpec, len(m.Fields))
	for i, f := range m.Fields {
		specs[i] = model.FieldSpec{Name: model.FieldName(f.Name), Dim: f.Dim}
	}
	return model.NewSchema(specs...)
}

// DecodeManifest reads and validates a manifest from r.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	if m.NumNodes < 0 {
		return nil, fmt.Errorf("negative node count %d", m.NumNodes)
	}
	if _, err := ParseCodec(m.Codec); err != nil {
		return nil, err
	}
	if len(m.Fields) == 0 {
		return nil, model.ErrEmptySchema
	}
	return &m, nil
}

// EncodeManifest writes the manifest to w as JSON.
func EncodeManifest(w io.Writer, m *Manifest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

// columnFileName returns the file (or object key suffix) holding the
// column for the given field.
func columnFileName(name model.FieldName, codec Codec) string {
	return string(name) + ".col" + codec.ext()
}
