package storage

import (
	"context"
	"io"
	"path"

	"github.com/go-git/go-billy/v5"
)

// Local keeps objects as files of a billy filesystem.
type Local struct {
	fs billy.Filesystem
}

func NewLocal(fs billy.Filesystem) *Local {
	return &Local{fs: fs}
}

func (l *Local) Read(_ context.Context, p string) ([]byte, error) {
	f, err := l.fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (l *Local) Write(_ context.Context, p string, data []byte) error {
	if err := l.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := l.fs.Create(p)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
