package storage

import (
	"context"

	"deadlock/service/etc"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"
)

// ErrUnknownType is returned for a storage.type other than none, local or minio.
var ErrUnknownType = errors.New("unknown storage type")

// Provider is the interface for storage providers
type Provider interface {
	// Read reads the object from storage
	Read(ctx context.Context, path string) ([]byte, error)
	// Write writes the object to storage
	Write(ctx context.Context, path string, data []byte) error
}

// FromConfig creates the configured provider. It returns nil when storage is disabled.
func FromConfig(cfg *etc.Configuration) (Provider, error) {
	switch cfg.Storage.Type {
	case "", "none":
		return nil, nil
	case "local":
		return NewLocal(osfs.New(cfg.Storage.Local.Path)), nil
	case "minio":
		return NewMinIO(cfg)
	}
	return nil, errors.Wrapf(ErrUnknownType, "'%s'", cfg.Storage.Type)
}
