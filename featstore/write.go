package featstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/featcache/internal/mem"
	"github.com/hupe1980/featcache/model"
)

// WriteDir authors the column-store layout consumed by FileStore and the
// object-store backends: a JSON manifest plus one column file per field.
// columns must contain a numNodes-row matrix for every field of the schema.
//
// Object-store backends require CodecNone; ranged reads cannot address rows
// inside a compressed stream.
func WriteDir(dir string, schema *model.Schema, numNodes int, columns map[model.FieldName]*model.Matrix, codec Codec) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	manifest := &Manifest{
		Version:  CurrentVersion,
		NumNodes: numNodes,
		Codec:    codec.String(),
	}
	for _, spec := range schema.Specs() {
		col, ok := columns[spec.Name]
		if !ok {
			return fmt.Errorf("missing column for field %q", spec.Name)
		}
		if col.Rows() != numNodes || col.Dim() != spec.Dim {
			return fmt.Errorf("field %q: column shape %dx%d, want %dx%d",
				spec.Name, col.Rows(), col.Dim(), numNodes, spec.Dim)
		}
		manifest.Fields = append(manifest.Fields, ManifestField{Name: string(spec.Name), Dim: spec.Dim})
	}

	for _, spec := range schema.Specs() {
		if err := writeColumn(dir, spec.Name, columns[spec.Name], codec); err != nil {
			return err
		}
	}

	mf, err := os.Create(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if err := EncodeManifest(mf, manifest); err != nil {
		_ = mf.Close()
		return err
	}
	return mf.Close()
}

func writeColumn(dir string, name model.FieldName, col *model.Matrix, codec Codec) error {
	f, err := os.Create(filepath.Join(dir, columnFileName(name, codec)))
	if err != nil {
		return fmt.Errorf("create column %q: %w", name, err)
	}

	enc, err := codec.newEncoder(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	if _, err := enc.Write(mem.AsBytes(col.Data())); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("write column %q: %w", name, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush column %q: %w", name, err)
	}
	return f.Close()
}
