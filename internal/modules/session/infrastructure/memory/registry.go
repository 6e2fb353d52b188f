package memory

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/qrdrop/internal/modules/session/domain"
)

type entry struct {
	// critical section for mutate+publish pairs, see Registry.Lock
	mu      sync.Mutex
	session domain.Session
}

// Registry is the in-memory SessionRegistry. It is safe for concurrent use:
// the map and file slices are guarded by mu, each session additionally owns a
// lock that callers take around multi-step updates.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	newID    func() string
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

func (r *Registry) CreateSession() domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for _, taken := r.sessions[id]; taken; _, taken = r.sessions[id] {
		id = r.newID()
	}

	s := domain.Session{ID: id, Files: []domain.File{}, CreatedAt: r.now()}
	r.sessions[id] = &entry{session: s}
	return s
}

func (r *Registry) Exists(sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[sessionID]
	return ok
}

func (r *Registry) GetSession(sessionID string) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return domain.Session{}, fmt.Errorf("%s: %w", sessionID, domain.ErrSessionNotFound)
	}
	s := e.session
	s.Files = slices.Clone(e.session.Files)
	return s, nil
}

// GetFiles returns a copy of the session's files in upload order
func (r *Registry) GetFiles(sessionID string) ([]domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", sessionID, domain.ErrSessionNotFound)
	}
	files := make([]domain.File, len(e.session.Files))
	copy(files, e.session.Files)
	return files, nil
}

func (r *Registry) GetFile(sessionID, fileID string) (domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return domain.File{}, fmt.Errorf("%s: %w", sessionID, domain.ErrSessionNotFound)
	}
	for _, f := range e.session.Files {
		if f.ID == fileID {
			return f, nil
		}
	}
	return domain.File{}, fmt.Errorf("%s: %w", fileID, domain.ErrFileNotFound)
}

// AddFiles appends in arrival order. Names are not deduplicated.
func (r *Registry) AddFiles(sessionID string, files []domain.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%s: %w", sessionID, domain.ErrSessionNotFound)
	}
	e.session.Files = append(e.session.Files, files...)
	return nil
}

func (r *Registry) DeleteFile(sessionID, fileID string) (domain.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return domain.File{}, fmt.Errorf("%s: %w", sessionID, domain.ErrSessionNotFound)
	}
	idx := slices.IndexFunc(e.session.Files, func(f domain.File) bool { return f.ID == fileID })
	if idx < 0 {
		return domain.File{}, fmt.Errorf("%s: %w", fileID, domain.ErrFileNotFound)
	}
	deleted := e.session.Files[idx]
	e.session.Files = slices.Delete(e.session.Files, idx, idx+1)
	return deleted, nil
}

// Lock takes the session's critical section lock. Unknown sessions get a no-op release.
func (r *Registry) Lock(sessionID string) func() {
	r.mu.RLock()
	e, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return func() {}
	}
	e.mu.Lock()
	return e.mu.Unlock
}

// Len returns the number of sessions held
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

var _ domain.SessionRegistry = (*Registry)(nil)
