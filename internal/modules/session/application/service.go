package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	filedomain "github.com/saransh1220/qrdrop/internal/modules/filestorage/domain"
	realtimedomain "github.com/saransh1220/qrdrop/internal/modules/realtime/domain"
	"github.com/saransh1220/qrdrop/internal/modules/session/domain"
)

const (
	DefaultMaxFiles = 20

	// bytes read from a part when its media type has to be sniffed
	sniffLength = 3072
)

// EventPublisher fans events out to the members of a room
type EventPublisher interface {
	Publish(room string, event realtimedomain.Event) error
}

// FileStore is the content store as seen by sessions
type FileStore interface {
	StoredName(originalName string) string
	Save(ctx context.Context, folder, storedName string, r io.Reader, contentType string) (string, int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// FileListCache stores rendered file lists. Optional.
type FileListCache interface {
	Get(ctx context.Context, sessionID string) ([]byte, bool, error)
	Set(ctx context.Context, sessionID string, payload []byte) error
	Invalidate(ctx context.Context, sessionID string) error
}

type ArchiveWriter interface {
	Write(ctx context.Context, w io.Writer, files []domain.File) (domain.ArchiveStats, error)
}

type Thumbnailer interface {
	Render(ctx context.Context, f domain.File) ([]byte, error)
}

// UploadPart is one file of a multipart upload
type UploadPart struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type UploadResult struct {
	Files    []domain.File
	Rejected []domain.Rejection
}

type Options struct {
	MaxFiles int
	Cache    FileListCache
}

// SessionService owns the session lifecycle and every file mutation.
// Mutations that are broadcast run inside the session lock so that room members
// see events in the order the registry changed.
type SessionService struct {
	registry   domain.SessionRegistry
	files      FileStore
	events     EventPublisher
	archiver   ArchiveWriter
	thumbnails Thumbnailer
	cache      FileListCache
	maxFiles   int
	newID      func() string
	now        func() time.Time
}

func NewSessionService(registry domain.SessionRegistry, files FileStore, events EventPublisher, archiver ArchiveWriter, thumbnails Thumbnailer, opts Options) *SessionService {
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	svc := &SessionService{
		registry:   registry,
		files:      files,
		events:     events,
		archiver:   archiver,
		thumbnails: thumbnails,
		cache:      opts.Cache,
		maxFiles:   maxFiles,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	activeSessions.track(svc.SessionCount)
	return svc
}

// SessionCount is the number of live sessions. Sessions never expire, so this only grows.
func (s *SessionService) SessionCount() int {
	return s.registry.Len()
}

func (s *SessionService) CreateSession() domain.Session {
	sess := s.registry.CreateSession()
	sessionsCreated.Inc()
	log.Printf("[SessionService] Created session %s", sess.ID)
	return sess
}

func (s *SessionService) SessionExists(sessionID string) bool {
	return s.registry.Exists(sessionID)
}

func (s *SessionService) GetSession(sessionID string) (domain.Session, error) {
	return s.registry.GetSession(sessionID)
}

func (s *SessionService) ListFiles(sessionID string) ([]domain.File, error) {
	return s.registry.GetFiles(sessionID)
}

type fileList struct {
	Files []domain.File `json:"files"`
}

// FileListPayload returns the JSON body {"files": [...]} for a session, served
// from the cache when one is configured. cached reports a cache hit.
func (s *SessionService) FileListPayload(ctx context.Context, sessionID string) (payload []byte, cached bool, err error) {
	// Cached lists can outlive the registry (process restart), the registry decides
	if !s.registry.Exists(sessionID) {
		return nil, false, fmt.Errorf("%s: %w", sessionID, domain.ErrSessionNotFound)
	}

	if s.cache != nil {
		val, ok, err := s.cache.Get(ctx, sessionID)
		if err != nil {
			log.Printf("[SessionService] Cache read failed for %s: %v", sessionID, err)
		} else if ok {
			return val, true, nil
		}
	}

	// Read and fill under the lock so a concurrent invalidation cannot be overwritten by a stale list
	unlock := s.registry.Lock(sessionID)
	defer unlock()

	files, err := s.registry.GetFiles(sessionID)
	if err != nil {
		return nil, false, err
	}
	payload, err = json.Marshal(fileList{Files: files})
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode file list: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, sessionID, payload); err != nil {
			log.Printf("[SessionService] Cache write failed for %s: %v", sessionID, err)
		}
	}
	return payload, false, nil
}

// UploadFiles stores the accepted parts, registers them and broadcasts
// files-uploaded with exactly the new records. Parts that are not images or
// videos are listed in Rejected; when nothing is accepted the call fails with
// ErrUnsupportedMediaType. A storage failure registers nothing.
func (s *SessionService) UploadFiles(ctx context.Context, sessionID string, parts []UploadPart) (*UploadResult, error) {
	if !s.registry.Exists(sessionID) {
		return nil, fmt.Errorf("%s: %w", sessionID, domain.ErrSessionNotFound)
	}
	if len(parts) == 0 {
		return nil, domain.ErrNoUploadedFiles
	}
	if len(parts) > s.maxFiles {
		return nil, fmt.Errorf("%d files, limit is %d: %w", len(parts), s.maxFiles, domain.ErrTooManyFiles)
	}

	result := &UploadResult{Files: []domain.File{}, Rejected: []domain.Rejection{}}
	for _, part := range parts {
		f, err := s.storePart(ctx, sessionID, part)
		if errors.Is(err, domain.ErrUnsupportedMediaType) {
			log.Printf("[SessionService] Rejected %q for session %s: %v", part.Filename, sessionID, err)
			filesRejected.Inc()
			result.Rejected = append(result.Rejected, domain.Rejection{Name: part.Filename, Reason: err.Error()})
			continue
		}
		if err != nil {
			s.discard(sessionID, result.Files)
			return nil, err
		}
		result.Files = append(result.Files, f)
	}

	if len(result.Files) == 0 {
		return result, domain.ErrUnsupportedMediaType
	}

	unlock := s.registry.Lock(sessionID)
	defer unlock()

	if err := s.registry.AddFiles(sessionID, result.Files); err != nil {
		s.discard(sessionID, result.Files)
		return nil, err
	}
	s.publish(sessionID, realtimedomain.Event{Kind: realtimedomain.EventFilesUploaded, Data: result.Files})
	s.invalidate(ctx, sessionID)

	for _, f := range result.Files {
		filesUploaded.WithLabelValues(family(f.MimeType)).Inc()
		uploadedBytes.Add(float64(f.Size))
	}
	log.Printf("[SessionService] Session %s: %d file(s) uploaded, %d rejected", sessionID, len(result.Files), len(result.Rejected))
	return result, nil
}

func (s *SessionService) storePart(ctx context.Context, sessionID string, part UploadPart) (domain.File, error) {
	rc, err := part.Open()
	if err != nil {
		return domain.File{}, fmt.Errorf("failed to read part %q: %w: %w", part.Filename, domain.ErrStorageIO, err)
	}
	defer rc.Close()

	mediaType, body, err := detectMediaType(part.ContentType, rc)
	if err != nil {
		return domain.File{}, fmt.Errorf("failed to read part %q: %w: %w", part.Filename, domain.ErrStorageIO, err)
	}
	if !domain.AcceptedMediaType(mediaType) {
		return domain.File{}, fmt.Errorf("%s: %w", mediaType, domain.ErrUnsupportedMediaType)
	}

	storedName := s.files.StoredName(part.Filename)
	key, n, err := s.files.Save(ctx, sessionID, storedName, body, mediaType)
	if err != nil {
		return domain.File{}, fmt.Errorf("failed to store %q: %w: %w", part.Filename, domain.ErrStorageIO, err)
	}

	id := s.newID()
	return domain.File{
		ID:              id,
		StoredName:      storedName,
		OriginalName:    part.Filename,
		MimeType:        mediaType,
		Size:            n,
		Path:            PreviewPath(sessionID, id),
		UploadedAt:      s.now(),
		ContentLocation: key,
	}, nil
}

// discard removes bytes stored by a failed request
func (s *SessionService) discard(sessionID string, files []domain.File) {
	for _, f := range files {
		if err := s.files.Delete(context.Background(), f.ContentLocation); err != nil {
			log.Printf("[SessionService] Failed to discard %s for session %s: %v", f.ContentLocation, sessionID, err)
		}
	}
}

// OpenFile returns the record and its bytes. Missing bytes read as ErrFileNotFound.
func (s *SessionService) OpenFile(ctx context.Context, sessionID, fileID string) (domain.File, io.ReadCloser, error) {
	f, err := s.registry.GetFile(sessionID, fileID)
	if err != nil {
		return domain.File{}, nil, err
	}
	rc, err := s.files.Open(ctx, f.ContentLocation)
	if err != nil {
		if errors.Is(err, filedomain.ErrObjectNotFound) {
			return domain.File{}, nil, fmt.Errorf("bytes of %s: %w", fileID, domain.ErrFileNotFound)
		}
		return domain.File{}, nil, fmt.Errorf("failed to open %s: %w: %w", fileID, domain.ErrStorageIO, err)
	}
	return f, rc, nil
}

// DeleteFile removes the bytes and the record, then broadcasts file-deleted.
func (s *SessionService) DeleteFile(ctx context.Context, sessionID, fileID string) error {
	unlock := s.registry.Lock(sessionID)
	defer unlock()

	f, err := s.registry.GetFile(sessionID, fileID)
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, f.ContentLocation); err != nil {
		return fmt.Errorf("failed to delete %s: %w: %w", fileID, domain.ErrStorageIO, err)
	}
	if _, err := s.registry.DeleteFile(sessionID, fileID); err != nil {
		return err
	}

	s.publish(sessionID, realtimedomain.Event{Kind: realtimedomain.EventFileDeleted, Data: fileID})
	s.invalidate(ctx, sessionID)
	filesDeleted.Inc()
	log.Printf("[SessionService] Session %s: deleted %s (%s)", sessionID, fileID, f.OriginalName)
	return nil
}

// WriteArchive streams every file of the session into w as one ZIP.
// ErrNoFiles is returned before anything is written.
func (s *SessionService) WriteArchive(ctx context.Context, sessionID string, w io.Writer) (domain.ArchiveStats, error) {
	files, err := s.ListFiles(sessionID)
	if err != nil {
		return domain.ArchiveStats{}, err
	}
	if len(files) == 0 {
		return domain.ArchiveStats{}, domain.ErrNoFiles
	}

	stats, err := s.archiver.Write(ctx, w, files)
	if err != nil {
		archivesStreamed.WithLabelValues("failed").Inc()
		return stats, err
	}
	archivesStreamed.WithLabelValues("ok").Inc()
	log.Printf("[SessionService] Session %s: archive with %d entries (%d skipped, %d bytes)", sessionID, stats.Entries, stats.Skipped, stats.Bytes)
	return stats, nil
}

func (s *SessionService) Thumbnail(ctx context.Context, sessionID, fileID string) ([]byte, error) {
	f, err := s.registry.GetFile(sessionID, fileID)
	if err != nil {
		return nil, err
	}
	return s.thumbnails.Render(ctx, f)
}

func (s *SessionService) publish(sessionID string, event realtimedomain.Event) {
	if err := s.events.Publish(sessionID, event); err != nil {
		log.Printf("[SessionService] Failed to publish %s to %s: %v", event.Kind, sessionID, err)
	}
}

func (s *SessionService) invalidate(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionID); err != nil {
		log.Printf("[SessionService] Cache invalidate failed for %s: %v", sessionID, err)
	}
}

// PreviewPath is the inline URL browsers use as <img>/<video> source
func PreviewPath(sessionID, fileID string) string {
	return "/api/preview/" + sessionID + "/" + fileID
}

// detectMediaType trusts the declared type unless it is missing or generic,
// in which case the first bytes are sniffed. The returned reader yields the full body.
func detectMediaType(declared string, r io.Reader) (string, io.Reader, error) {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt, r, nil
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]

	mt, _, err := mime.ParseMediaType(mimetype.Detect(head).String())
	if err != nil {
		mt = "application/octet-stream"
	}
	return mt, io.MultiReader(bytes.NewReader(head), r), nil
}

func family(mediaType string) string {
	if i := strings.IndexByte(mediaType, '/'); i > 0 {
		return mediaType[:i]
	}
	return "other"
}
