// Package sessionstore persists sessions so they survive process restarts.
// Grounded on the teacher's pkg/reporting.Storage (one JSON file per
// record, skip-on-parse-error loading) but upgraded to atomic
// write-temp-then-rename semantics: the spec requires save to be an
// idempotent function of session state, which a bare os.WriteFile cannot
// guarantee if the process dies mid-write.
package sessionstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jihwankim/fault-recommender/pkg/reporting"
	"github.com/jihwankim/fault-recommender/pkg/session"
)

// Store guards an in-memory session map and its durable shadow with a
// single mutex, per the spec's concurrency contract: every mutation that
// changes externally visible session state triggers a save before the
// mutating call returns.
type Store struct {
	mu      sync.Mutex
	dir     string
	logger  *reporting.Logger
	byID    map[string]*session.Session
}

// New constructs a Store rooted at dir, creating it if necessary.
func New(dir string, logger *reporting.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session storage directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger,
		byID:   make(map[string]*session.Session),
	}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes s's snapshot atomically (write to a temp file, then rename)
// and updates the in-memory map.
func (s *Store) Save(sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(sess)
}

func (s *Store) saveLocked(sess *session.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	dest := s.path(sess.ID)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session snapshot: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("failed to commit session snapshot: %w", err)
	}

	s.byID[sess.ID] = sess
	return nil
}

// Get returns a deep copy of the in-memory session for id, if present. The
// copy is taken under s.mu so it never observes a worker goroutine's
// mutation of Trials/Best/Status mid-write — callers may read the result
// freely once it returns.
func (s *Store) Get(id string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// List returns a deep copy of every in-memory session, taken under s.mu for
// the same reason Get does.
func (s *Store) List() []*session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*session.Session, 0, len(s.byID))
	for _, sess := range s.byID {
		out = append(out, sess.Clone())
	}
	return out
}

// Delete removes a session's snapshot and its in-memory entry.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byID, id)
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session snapshot: %w", err)
	}
	return nil
}

// LoadAll reads every parseable snapshot under the store's directory into
// the in-memory map. Parse errors on individual records are logged and
// skipped — the process still boots.
func (s *Store) LoadAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read session storage directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read session snapshot", "path", path, "error", err.Error())
			continue
		}

		var sess session.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			s.logger.Warn("failed to parse session snapshot", "path", path, "error", err.Error())
			continue
		}

		s.byID[sess.ID] = &sess
	}

	return nil
}
