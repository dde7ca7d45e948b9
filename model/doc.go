// Package model defines the shared data types of featcache: field schemas,
// dense row-major feature matrices and per-batch feature frames.
package model
