package session

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/storage"
)

const envelopeVersion = 1

// envelope is the persisted form of a Session.
type envelope struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	Session  json.RawMessage `json:"session"`
}

// Store is the single writer of the persisted Session. Reads are served from
// an in-memory copy that is reloaded from storage when absent.
type Store struct {
	mu     sync.Mutex
	local  storage.Local
	cached *Session
	logger *log.Logger
}

// NewStore returns a Store persisting into local.
func NewStore(local storage.Local, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Store{local: local, logger: logger.With("component", "session")}
}

// Read returns a copy of the current session, loading it from storage if
// needed. Missing or corrupt data reads as no session.
func (s *Store) Read() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached == nil {
		s.cached = s.load()
	}
	if s.cached == nil {
		return nil, false
	}
	cp := *s.cached
	return &cp, true
}

// CurrentTeamID returns the selected team id or "".
func (s *Store) CurrentTeamID() string {
	if sess, ok := s.Read(); ok {
		return sess.CurrentTeamID
	}
	return ""
}

// Write merges p into the current session (creating one if absent), persists
// it and returns the merged copy.
func (s *Store) Write(p Patch) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := Session{}
	if s.cached == nil {
		s.cached = s.load()
	}
	if s.cached != nil {
		merged = *s.cached
	}
	p.apply(&merged)

	if err := s.persist(merged); err != nil {
		return nil, err
	}

	s.cached = &merged
	cp := merged
	return &cp, nil
}

// Clear removes the persisted session and the cached copy.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	if err := s.local.Remove(storage.KeyLocalSession); err != nil {
		return err
	}
	return s.local.Remove(storage.KeyCurrentTeamID)
}

func (s *Store) persist(sess Session) error {
	raw, err := Encode(sess)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, "failed to encode session", err)
	}
	if err := s.local.Set(storage.KeyLocalSession, raw); err != nil {
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, "failed to persist session", err)
	}

	if sess.CurrentTeamID == "" {
		err = s.local.Remove(storage.KeyCurrentTeamID)
	} else {
		err = s.local.Set(storage.KeyCurrentTeamID, sess.CurrentTeamID)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, "failed to persist current team", err)
	}
	return nil
}

func (s *Store) load() *Session {
	raw, ok, err := s.local.Get(storage.KeyLocalSession)
	if err != nil {
		s.logger.WithError(err).Warn("session storage unreadable, treating as signed out")
		return nil
	}
	if !ok {
		return nil
	}

	sess, err := Decode(raw)
	if err != nil {
		s.logger.WithError(err).Warn("discarding corrupt session")
		return nil
	}
	return sess
}

// Encode serialises sess into a checksummed envelope.
func Encode(sess Session) (string, error) {
	body, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(envelope{
		Version:  envelopeVersion,
		Checksum: checksum(body),
		Session:  body,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Decode parses an envelope written by Encode, verifying its checksum.
func Decode(raw string) (*Session, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSessionCorrupt, "session is not valid JSON", err)
	}
	if env.Version != envelopeVersion {
		return nil, errors.New(errors.ErrCodeSessionCorrupt, fmt.Sprintf("unsupported session version %d", env.Version))
	}
	if env.Checksum != checksum(env.Session) {
		return nil, errors.New(errors.ErrCodeSessionCorrupt, "session checksum mismatch")
	}

	var sess Session
	if err := json.Unmarshal(env.Session, &sess); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSessionCorrupt, "session body is invalid", err)
	}
	return &sess, nil
}

func checksum(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}
