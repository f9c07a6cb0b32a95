package filestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/mali1sav/music/pkg/filestore/local"
	"github.com/mali1sav/music/pkg/filestore/s3"
)

type fs interface {
	Upload(ctx context.Context, path, name string) error
	Download(ctx context.Context, path, name string) error
}

// Store archives generated cover audio under its generation id.
type Store struct {
	fs fs
}

func (s *Store) SetAudio(ctx context.Context, path, id, format string) error {
	return s.fs.Upload(ctx, path, Audio(id, format))
}

func (s *Store) GetAudio(ctx context.Context, path, id, format string) error {
	return s.fs.Download(ctx, path, Audio(id, format))
}

// New creates a file store. For "local" the connection string is the root
// folder. For "s3" it has the form "key:secret@bucket.region".
func New(typ, conn string, debug bool) (*Store, error) {
	var fs fs
	switch typ {
	case "s3":
		split := strings.Split(conn, "@")
		if len(split) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 connection string %q", conn)
		}
		auth := strings.Split(split[0], ":")
		if len(auth) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 auth string %q", conn)
		}
		loc := strings.Split(split[1], ".")
		if len(loc) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 location string %q", conn)
		}
		candidate, err := s3.New(auth[0], auth[1], loc[1], loc[0], debug)
		if err != nil {
			return nil, fmt.Errorf("filestore: %w", err)
		}
		fs = candidate
	case "local":
		fs = local.New(conn, debug)
	default:
		return nil, fmt.Errorf("filestore: unknown file storage type %q", typ)
	}
	return &Store{fs: fs}, nil
}

func Audio(id, format string) string {
	return id + "." + format
}
