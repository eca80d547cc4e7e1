package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	logx "github.com/frameiq/agent-server/pkg/logger"
)

// MemoryStore keeps session records in process memory with lazy expiry, and
// can mirror records to a directory of JSON files so sessions survive a
// restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	// mirrorDir is empty when disk mirroring is off.
	mirrorDir string
}

type MemoryStoreOption func(*MemoryStore)

// WithMirrorDir mirrors each record to <dir>/<sessionID>.json and reloads
// from disk on a memory miss.
func WithMirrorDir(dir string) MemoryStoreOption {
	return func(s *MemoryStore) { s.mirrorDir = dir }
}

func NewMemoryStore(ttl time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Touch(ctx context.Context, sessionID string, delta int) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := s.live(ctx, sessionID, now)
	if sess == nil {
		sess = &Session{
			SessionID: sessionID,
			CreatedAt: now,
		}
		s.sessions[sessionID] = sess
	}
	sess.LastAccessed = now
	sess.MessageCount += delta
	s.mirror(sess)

	out := *sess
	return &out, nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(ctx, sessionID, s.now())
	if sess == nil {
		return nil, nil
	}
	out := *sess
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	if s.mirrorDir != "" {
		_ = os.Remove(s.mirrorPath(sessionID))
	}
	return nil
}

// live returns the unexpired record, consulting the disk mirror on a miss.
// Caller holds the lock.
func (s *MemoryStore) live(_ context.Context, sessionID string, now time.Time) *Session {
	sess, ok := s.sessions[sessionID]
	if !ok && s.mirrorDir != "" {
		sess = s.loadMirror(sessionID)
		if sess != nil {
			s.sessions[sessionID] = sess
		}
	}
	if sess == nil {
		return nil
	}
	if now.Sub(sess.LastAccessed) > s.ttl {
		delete(s.sessions, sessionID)
		if s.mirrorDir != "" {
			_ = os.Remove(s.mirrorPath(sessionID))
		}
		return nil
	}
	return sess
}

func (s *MemoryStore) mirrorPath(sessionID string) string {
	return filepath.Join(s.mirrorDir, sessionID+".json")
}

func (s *MemoryStore) mirror(sess *Session) {
	if s.mirrorDir == "" {
		return
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := os.MkdirAll(s.mirrorDir, 0o755); err != nil {
		logx.Warn().Err(err).Msg("session mirror dir unavailable")
		return
	}
	if err := os.WriteFile(s.mirrorPath(sess.SessionID), data, 0o644); err != nil {
		logx.Warn().Err(err).Str("session_id", sess.SessionID).Msg("session mirror write failed")
	}
}

func (s *MemoryStore) loadMirror(sessionID string) *Session {
	data, err := os.ReadFile(s.mirrorPath(sessionID))
	if err != nil {
		return nil
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil
	}
	return &sess
}

var _ Store = (*MemoryStore)(nil)
