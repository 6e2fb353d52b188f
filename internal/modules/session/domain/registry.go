package domain

// SessionRegistry holds sessions and their ordered file lists in memory.
// Sessions never expire; see DESIGN.md.
type SessionRegistry interface {
	CreateSession() Session
	Exists(sessionID string) bool
	GetSession(sessionID string) (Session, error)
	GetFiles(sessionID string) ([]File, error)
	GetFile(sessionID, fileID string) (File, error)
	AddFiles(sessionID string, files []File) error
	DeleteFile(sessionID, fileID string) (File, error)
	Len() int

	// Lock enters the per-session critical section and returns its release func.
	// Mutations of one session that must pair with a broadcast happen while it is held.
	Lock(sessionID string) (unlock func())
}
