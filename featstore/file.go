package featstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/internal/mem"
	"github.com/hupe1980/featcache/model"
)

// fileColumn is one opened feature column. Uncompressed columns stay on
// disk and are read with positioned reads; compressed columns are inflated
// into memory once at open time, since row-granular random access inside a
// compressed stream is not possible.
type fileColumn struct {
	dim      int
	file     *os.File      // nil when resident
	resident *model.Matrix // nil when file-backed
}

// FileStore serves features from per-field column files in a directory,
// described by a JSON manifest. It implements Store.
//
// Concurrent Fetch calls are safe; the store is read-only after Open.
type FileStore struct {
	dir         string
	manifest    *Manifest
	schema      *model.Schema
	codec       Codec
	columns     map[model.FieldName]*fileColumn
	concurrency int
}

// OpenFileStore opens the store directory written by WriteDir.
// concurrency bounds parallel column reads per fetch; values <= 0 default
// to 4.
func OpenFileStore(dir string, concurrency int) (*FileStore, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	mf, err := os.Open(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer mf.Close()

	manifest, err := DecodeManifest(mf)
	if err != nil {
		return nil, err
	}
	schema, err := manifest.Schema()
	if err != nil {
		return nil, err
	}
	codec, err := ParseCodec(manifest.Codec)
	if err != nil {
		return nil, err
	}

	s := &FileStore{
		dir:         dir,
		manifest:    manifest,
		schema:      schema,
		codec:       codec,
		columns:     make(map[model.FieldName]*fileColumn, schema.Len()),
		concurrency: concurrency,
	}

	for _, spec := range schema.Specs() {
		col, err := s.openColumn(spec)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.columns[spec.Name] = col
	}
	return s, nil
}

func (s *FileStore) openColumn(spec model.FieldSpec) (*fileColumn, error) {
	path := filepath.Join(s.dir, columnFileName(spec.Name, s.codec))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open column %q: %w", spec.Name, err)
	}

	if s.codec == CodecNone {
		want := int64(s.manifest.NumNodes) * int64(spec.Dim) * 4
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if info.Size() != want {
			_ = f.Close()
			return nil, fmt.Errorf("column %q: size %d, want %d", spec.Name, info.Size(), want)
		}
		return &fileColumn{dim: spec.Dim, file: f}, nil
	}

	defer f.Close()

	dec, err := s.codec.newDecoder(f)
	if err != nil {
		return nil, err
	}
	resident := model.NewMatrix(s.manifest.NumNodes, spec.Dim)
	if _, err := io.ReadFull(dec, mem.AsBytes(resident.Data())); err != nil {
		return nil, fmt.Errorf("inflate column %q: %w", spec.Name, err)
	}
	return &fileColumn{dim: spec.Dim, resident: resident}, nil
}

// Schema returns the store's field schema.
func (s *FileStore) Schema() *model.Schema { return s.schema }

// NumNodes returns the number of nodes the store serves.
func (s *FileStore) NumNodes() int { return s.manifest.NumNodes }

// Close releases the store's open column files.
func (s *FileStore) Close() error {
	var firstErr error
	for _, col := range s.columns {
		if col.file != nil {
			if err := col.file.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			col.file = nil
		}
	}
	return firstErr
}

// Fetch implements Store. Output row i corresponds to ids[i]. Columns are
// read in parallel; within a column, consecutive ids are coalesced into
// single positioned reads.
func (s *FileStore) Fetch(ctx context.Context, ids []core.GlobalID, fields []model.FieldName) (model.Frame, error) {
	frame := make(model.Frame, len(fields))
	for _, field := range fields {
		col, ok := s.columns[field]
		if !ok {
			return nil, unknownFieldError(field)
		}
		frame[field] = model.NewMatrix(len(ids), col.dim)
	}
	for _, id := range ids {
		if int(id) >= s.manifest.NumNodes {
			return nil, outOfRangeError(id, s.manifest.NumNodes)
		}
	}

	runs := CoalesceRuns(ids)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, field := range fields {
		col := s.columns[field]
		out := frame[field]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.readColumn(col, out, runs)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frame, nil
}

// readColumn fills out rows [run.Pos, run.Pos+run.Count) for every run.
func (s *FileStore) readColumn(col *fileColumn, out *model.Matrix, runs []Run) error {
	for _, run := range runs {
		dst := out.Data()[run.Pos*col.dim : (run.Pos+run.Count)*col.dim]

		if col.resident != nil {
			src := col.resident.Data()[int(run.Start)*col.dim : (int(run.Start)+run.Count)*col.dim]
			copy(dst, src)
			continue
		}

		off := int64(run.Start) * int64(col.dim) * 4
		if _, err := col.file.ReadAt(mem.AsBytes(dst), off); err != nil {
			return fmt.Errorf("read column rows [%d,%d): %w", run.Start, int(run.Start)+run.Count, err)
		}
	}
	return nil
}

var _ Store = (*FileStore)(nil)
