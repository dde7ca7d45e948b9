// Package s3 implements a featstore.Store backed by Amazon S3 or any
// S3-compatible object store reachable through aws-sdk-go-v2.
//
// Column objects follow the featstore.WriteDir layout under a common
// prefix. Feature rows are fixed width, so a fetch translates into ranged
// GetObject calls over coalesced runs of consecutive ids.
package s3
