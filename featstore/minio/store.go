package minio

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/featstore"
	"github.com/hupe1980/featcache/internal/mem"
	"github.com/hupe1980/featcache/model"
)

// Store serves features from per-field column objects in a MinIO (or any
// S3-compatible) bucket, implementing featstore.Store. It mirrors the s3
// backend's layout and ranged-read protocol for deployments that already
// speak the MinIO client.
type Store struct {
	client      *minio.Client
	bucket      string
	prefix      string
	manifest    *featstore.Manifest
	schema      *model.Schema
	concurrency int
}

// Options configures Open.
type Options struct {
	// Concurrency bounds parallel ranged reads per fetch. <= 0 means 16.
	Concurrency int
}

// Open reads the manifest under the prefix and returns a ready store.
func Open(ctx context.Context, client *minio.Client, bucket, prefix string, opts Options) (*Store, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 16
	}

	key := path.Join(prefix, featstore.ManifestFileName)
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	manifest, err := featstore.DecodeManifest(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("manifest %s not found: %w", key, err)
		}
		return nil, err
	}
	codec, err := featstore.ParseCodec(manifest.Codec)
	if err != nil {
		return nil, err
	}
	if codec != featstore.CodecNone {
		return nil, fmt.Errorf("codec %q not supported over ranged reads", manifest.Codec)
	}
	schema, err := manifest.Schema()
	if err != nil {
		return nil, err
	}

	return &Store{
		client:      client,
		bucket:      bucket,
		prefix:      prefix,
		manifest:    manifest,
		schema:      schema,
		concurrency: opts.Concurrency,
	}, nil
}

// Schema returns the store's field schema.
func (s *Store) Schema() *model.Schema { return s.schema }

// NumNodes returns the number of nodes the store serves.
func (s *Store) NumNodes() int { return s.manifest.NumNodes }

func (s *Store) columnKey(field model.FieldName) string {
	return path.Join(s.prefix, string(field)+".col")
}

// Fetch implements featstore.Store. Output row i corresponds to ids[i].
func (s *Store) Fetch(ctx context.Context, ids []core.GlobalID, fields []model.FieldName) (model.Frame, error) {
	frame := make(model.Frame, len(fields))
	for _, field := range fields {
		dim, ok := s.schema.Dim(field)
		if !ok {
			return nil, fmt.Errorf("%w: %q", featstore.ErrUnknownField, field)
		}
		frame[field] = model.NewMatrix(len(ids), dim)
	}
	for _, id := range ids {
		if int(id) >= s.manifest.NumNodes {
			return nil, fmt.Errorf("%w: id %d, store holds %d nodes", featstore.ErrOutOfRange, id, s.manifest.NumNodes)
		}
	}

	runs := featstore.CoalesceRuns(ids)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, field := range fields {
		dim, _ := s.schema.Dim(field)
		out := frame[field]
		key := s.columnKey(field)

		for _, run := range runs {
			g.Go(func() error {
				dst := out.Data()[run.Pos*dim : (run.Pos+run.Count)*dim]
				off := int64(run.Start) * int64(dim) * 4
				return s.readRange(ctx, key, off, mem.AsBytes(dst))
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frame, nil
}

// readRange fetches len(p) bytes at off from the object into p.
func (s *Store) readRange(ctx context.Context, key string, off int64, p []byte) error {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, off+int64(len(p))-1); err != nil {
		return err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	if _, err := io.ReadFull(obj, p); err != nil {
		return fmt.Errorf("read %s bytes [%d,%d): %w", key, off, off+int64(len(p)), err)
	}
	return nil
}

var _ featstore.Store = (*Store)(nil)
