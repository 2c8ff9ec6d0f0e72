package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store gives exclusive access to a state file for the duration of a run.
// Open it before loading, Save once at the end and always Close it.
type Store struct {
	path   string
	codec  Codec
	lock   *lock
	logger *zap.Logger
}

// Open locks the state file at path, waiting for other runs to release it.
func Open(ctx context.Context, path string, codec Codec, logger *zap.Logger) (*Store, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, &Error{Op: "open", Path: path, Err: errors.New("path is a directory")}
	}

	l, err := acquireLock(ctx, lockPath(path), logger)
	if err != nil {
		return nil, &Error{Op: "lock", Path: path, Err: err}
	}

	return &Store{
		path:   path,
		codec:  codec,
		lock:   l,
		logger: logger,
	}, nil
}

// WithLock opens the store, runs fn and releases the lock on every path.
func WithLock(ctx context.Context, path string, codec Codec, logger *zap.Logger, fn func(*Store) error) (err error) {
	s, err := Open(ctx, path, codec, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// Load reads the state document. A missing file yields an empty document.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("No state file yet, starting fresh", zap.String("state_file", s.path))
			return NewDocument(), nil
		}
		return nil, &Error{Op: "read", Path: s.path, Err: err}
	}

	doc := NewDocument()
	if len(data) == 0 {
		return doc, nil
	}
	if err := s.codec.Unmarshal(data, doc); err != nil {
		return nil, &Error{Op: "decode", Path: s.path, Err: err}
	}
	if doc.States == nil {
		doc.States = NewDocument().States
	}

	s.logger.Debug("State loaded",
		zap.String("state_file", s.path),
		zap.String("format", s.codec.Name()),
		zap.Int("streams", len(doc.States)))
	return doc, nil
}

// Save replaces the state file with doc in a single rename, so readers
// never see a partial document.
func (s *Store) Save(doc *Document) error {
	doc.Version = documentVersion
	data, err := s.codec.Marshal(doc)
	if err != nil {
		return &Error{Op: "encode", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp*")
	if err != nil {
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return &Error{Op: "write", Path: s.path, Err: err}
	}

	s.logger.Debug("State saved",
		zap.String("state_file", s.path),
		zap.Int("streams", len(doc.States)))
	return nil
}

// Close releases the lock.
func (s *Store) Close() error {
	if err := s.lock.release(); err != nil {
		return &Error{Op: "unlock", Path: s.path, Err: err}
	}
	return nil
}
