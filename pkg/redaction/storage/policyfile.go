package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"privacyviz/redactor/pkg/redaction"
)

// policyDocument is the on-disk layout of a policy file:
//
//	users:
//	  - email: alice@example.com
//	    status:
//	      wifi: time
//	    timeFiltering:
//	      wifi:
//	        startingTime: "2023-05-01T13:00:00.000Z"
//	        endingTime: "2023-05-01T21:00:00.000Z"
//	        applyTS: 1682899200000
type policyDocument struct {
	Users []*redaction.User `yaml:"users"`
}

// PolicyFile is a UserStore backed by a YAML file. Watch keeps it in sync
// with the file; a file that fails to parse leaves the previous users in
// place.
type PolicyFile struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu    sync.RWMutex
	users map[string]*redaction.User
}

// NewPolicyFile loads the policy file at path.
func NewPolicyFile(path string) (*PolicyFile, error) {
	pf := &PolicyFile{
		path:     path,
		debounce: 100 * time.Millisecond,
		logger:   slog.Default().With("component", "redaction.storage.policyfile"),
	}
	if err := pf.Reload(); err != nil {
		return nil, err
	}
	return pf, nil
}

// Reload reads the file again.
func (pf *PolicyFile) Reload() error {
	data, err := os.ReadFile(pf.path)
	if err != nil {
		return redaction.NewStorageError("file", "read", err)
	}

	var doc policyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return redaction.NewStorageError("file", "parse", fmt.Errorf("%s: %w", pf.path, err))
	}

	users := make(map[string]*redaction.User, len(doc.Users))
	for i, u := range doc.Users {
		if u == nil || u.Email == "" {
			return redaction.NewStorageError("file", "parse", fmt.Errorf("%s: user %d has no email", pf.path, i))
		}
		if _, dup := users[u.Email]; dup {
			return redaction.NewStorageError("file", "parse", fmt.Errorf("%s: duplicate user %s", pf.path, u.Email))
		}
		users[u.Email] = u
	}

	pf.mu.Lock()
	pf.users = users
	pf.mu.Unlock()

	pf.logger.Info("policy file loaded", "path", pf.path, "users", len(users))
	return nil
}

// ListUsers returns copies of all users ordered by email.
func (pf *PolicyFile) ListUsers(ctx context.Context) ([]*redaction.User, error) {
	pf.mu.RLock()
	defer pf.mu.RUnlock()

	users := make([]*redaction.User, 0, len(pf.users))
	for _, u := range pf.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// GetUser returns a copy of the user, or nil if none exists.
func (pf *PolicyFile) GetUser(ctx context.Context, email string) (*redaction.User, error) {
	pf.mu.RLock()
	defer pf.mu.RUnlock()

	u, ok := pf.users[email]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

// Watch reloads the file whenever it changes, until ctx is cancelled.
// The parent directory is watched so editors that replace the file are
// handled.
func (pf *PolicyFile) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(pf.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", pf.path, err)
	}

	pf.logger.Info("policy file watcher started", "path", pf.path)

	target := filepath.Clean(pf.path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			pf.logger.Info("policy file watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target || event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(pf.debounce, func() {
				if err := pf.Reload(); err != nil {
					pf.logger.Error("policy file reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			pf.logger.Error("policy file watcher error", "error", err)
		}
	}
}
