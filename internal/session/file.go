package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileStore reads the session cookie value from a file written by the login
// flow. The file holds only the token; a missing or empty file means no cookie.
type FileStore struct {
	Path   string
	Origin string
	Name   string

	logger *zap.Logger
}

func NewFileStore(path, origin, name string, logger *zap.Logger) *FileStore {
	if origin == "" {
		origin = DefaultOrigin
	}
	if name == "" {
		name = DefaultName
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileStore{
		Path:   path,
		Origin: origin,
		Name:   name,
		logger: logger,
	}
}

func (s *FileStore) Get(_ context.Context) (*Cookie, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cookie file %q: %w", s.Path, err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return nil, nil
	}

	return &Cookie{Origin: s.Origin, Name: s.Name, Value: value}, nil
}

// Watch subscribes to changes of the cookie file. The parent directory is
// watched so that atomic replaces and removals are observed too.
func (s *FileStore) Watch() (*Subscription, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating cookie watcher: %w", err)
	}

	path := filepath.Clean(s.Path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %q: %w", filepath.Dir(path), err)
	}

	var wg sync.WaitGroup
	sub := newSubscription(func() error {
		err := watcher.Close()
		wg.Wait()
		return err
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(sub.events)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				s.logger.Debug("session cookie changed",
					zap.String("path", path),
					zap.String("op", event.Op.String()),
				)
				sub.notify()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("cookie watcher error", zap.Error(err))
			}
		}
	}()

	return sub, nil
}
