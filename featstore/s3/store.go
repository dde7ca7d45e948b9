package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/featstore"
	"github.com/hupe1980/featcache/internal/mem"
	"github.com/hupe1980/featcache/model"
)

// Client is the subset of the S3 API the store uses. *s3.Client satisfies
// it; tests substitute a mock.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Store serves features from per-field column objects in an S3 bucket,
// implementing featstore.Store. Rows are fetched with ranged GetObject
// calls over coalesced id runs, so a locality-heavy request costs few
// round trips.
//
// The object layout is the one WriteDir produces, uploaded under a common
// prefix: <prefix>/manifest.json plus <prefix>/<field>.col. Only CodecNone
// manifests are supported; ranged reads cannot address rows inside a
// compressed stream.
type Store struct {
	client      Client
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
func Open(ctx context.Context, client Client, bucket, prefix string, opts Options) (*Store, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 16
	}

	key := path.Join(prefix, featstore.ManifestFileName)
	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("manifest %s not found: %w", key, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	manifest, err := featstore.DecodeManifest(resp.Body)
	if err != nil {
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

	// Fixed-width rows make the expected object size exact; a short column
	// would otherwise only surface as a failed ranged read mid-training.
	for _, spec := range schema.Specs() {
		key := path.Join(prefix, string(spec.Name)+".col")
		head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("head column %q: %w", spec.Name, err)
		}
		want := int64(manifest.NumNodes) * int64(spec.Dim) * 4
		if size := aws.ToInt64(head.ContentLength); size != want {
			return nil, fmt.Errorf("column %q: size %d, want %d", spec.Name, size, want)
		}
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
	end := off + int64(len(p)) - 1
	rangeHeader := fmt.Sprintf("bytes=%d-%d", off, end)

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		return fmt.Errorf("get %s %s: %w", key, rangeHeader, err)
	}
	defer resp.Body.Close()

	if _, err := io.ReadFull(resp.Body, p); err != nil {
		return fmt.Errorf("read %s %s: %w", key, rangeHeader, err)
	}
	return nil
}

// Upload writes a WriteDir-authored layout from memory into the bucket.
// It exists for tests and small fixtures; production layouts are usually
// synced with external tooling.
func Upload(ctx context.Context, client UploadClient, bucket, prefix string, schema *model.Schema, numNodes int, columns map[model.FieldName]*model.Matrix) error {
	manifest := &featstore.Manifest{
		Version:  featstore.CurrentVersion,
		NumNodes: numNodes,
		Codec:    featstore.CodecNone.String(),
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
		manifest.Fields = append(manifest.Fields, featstore.ManifestField{Name: string(spec.Name), Dim: spec.Dim})
	}

	var buf bytes.Buffer
	if err := featstore.EncodeManifest(&buf, manifest); err != nil {
		return err
	}
	if err := putObject(ctx, client, bucket, path.Join(prefix, featstore.ManifestFileName), buf.Bytes()); err != nil {
		return err
	}

	for _, spec := range schema.Specs() {
		key := path.Join(prefix, string(spec.Name)+".col")
		if err := putObject(ctx, client, bucket, key, mem.AsBytes(columns[spec.Name].Data())); err != nil {
			return err
		}
	}
	return nil
}

// UploadClient is the subset of the S3 API Upload uses.
type UploadClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func putObject(ctx context.Context, client UploadClient, bucket, key string, data []byte) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

var _ featstore.Store = (*Store)(nil)
