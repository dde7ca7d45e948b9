// Package minio implements a featstore.Store backed by MinIO or any
// S3-compatible object store reachable through minio-go.
package minio
