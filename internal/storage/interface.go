package storage

import "context"

// StorageInterface defines the contract for storing screenshot files
type StorageInterface interface {
	// Store saves data under name and returns a URL the file can be read from
	Store(ctx context.Context, name string, data []byte, contentType string) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
