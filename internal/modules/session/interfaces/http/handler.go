package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/saransh1220/qrdrop/internal/modules/session/application"
	"github.com/saransh1220/qrdrop/internal/modules/session/domain"
	"github.com/saransh1220/qrdrop/internal/shared/utils"
)

// Multipart field carrying the files, as sent by the mobile upload page
const uploadField = "files"

type SessionService interface {
	CreateSession() domain.Session
	SessionExists(sessionID string) bool
	GetSession(sessionID string) (domain.Session, error)
	FileListPayload(ctx context.Context, sessionID string) ([]byte, bool, error)
	UploadFiles(ctx context.Context, sessionID string, parts []application.UploadPart) (*application.UploadResult, error)
	OpenFile(ctx context.Context, sessionID, fileID string) (domain.File, io.ReadCloser, error)
	DeleteFile(ctx context.Context, sessionID, fileID string) error
	WriteArchive(ctx context.Context, sessionID string, w io.Writer) (domain.ArchiveStats, error)
	Thumbnail(ctx context.Context, sessionID, fileID string) ([]byte, error)
}

// ViewerCounter reports how many websocket clients joined a session room
type ViewerCounter interface {
	Viewers(room string) int
}

type Config struct {
	Port          string
	PublicBaseURL string
	MemoryLimit   int64
	LocalIP       func() string
}

type SessionHandler struct {
	service SessionService
	viewers ViewerCounter
	cfg     Config
	now     func() time.Time
}

func NewSessionHandler(service SessionService, viewers ViewerCounter, cfg Config) *SessionHandler {
	if cfg.MemoryLimit <= 0 {
		cfg.MemoryLimit = 32 << 20
	}
	if cfg.LocalIP == nil {
		cfg.LocalIP = utils.LocalIPv4
	}
	return &SessionHandler{service: service, viewers: viewers, cfg: cfg, now: time.Now}
}

func (h *SessionHandler) ServerInfo(w http.ResponseWriter, r *http.Request) {
	port, _ := strconv.Atoi(h.cfg.Port)
	utils.WriteJSON(w, http.StatusOK, ServerInfoResponse{IP: h.cfg.LocalIP(), Port: port})
}

func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.service.CreateSession()
	utils.WriteJSON(w, http.StatusOK, CreateSessionResponse{SessionID: s.ID})
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionId")
	s, err := h.service.GetSession(id)
	if err != nil {
		h.writeError(w, "GetSession", err)
		return
	}

	resp := SessionResponse{
		SessionID: s.ID,
		CreatedAt: s.CreatedAt,
		FileCount: len(s.Files),
		UploadURL: h.uploadURL(s.ID),
	}
	if h.viewers != nil {
		n := h.viewers.Viewers(s.ID)
		resp.Viewers = &n
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionId")
	payload, cached, err := h.service.FileListPayload(r.Context(), id)
	if err != nil {
		h.writeError(w, "ListFiles", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionId")
	if !h.service.SessionExists(id) {
		h.writeError(w, "Upload", domain.ErrSessionNotFound)
		return
	}

	if err := r.ParseMultipartForm(h.cfg.MemoryLimit); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid multipart upload", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	parts := formParts(r.MultipartForm.File[uploadField])
	res, err := h.service.UploadFiles(r.Context(), id, parts)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedMediaType) && res != nil {
			utils.WriteJSON(w, http.StatusUnsupportedMediaType, UploadRejectedResponse{
				Error:    "Only images and videos are allowed",
				Rejected: res.Rejected,
			})
			return
		}
		h.writeError(w, "Upload", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, UploadResponse{Success: true, Files: res.Files, Rejected: res.Rejected})
}

func formParts(headers []*multipart.FileHeader) []application.UploadPart {
	parts := make([]application.UploadPart, 0, len(headers))
	for _, fh := range headers {
		parts = append(parts, application.UploadPart{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return parts
}

func (h *SessionHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "attachment")
}

func (h *SessionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "inline")
}

func (h *SessionHandler) serveFile(w http.ResponseWriter, r *http.Request, disposition string) {
	sessionID := r.PathValue("sessionId")
	fileID := r.PathValue("fileId")

	f, rc, err := h.service.OpenFile(r.Context(), sessionID, fileID)
	if err != nil {
		h.writeError(w, "ServeFile", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Disposition", contentDisposition(disposition, f.OriginalName))

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, "", f.UploadedAt, rs)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("[SessionHandler.ServeFile] Transfer of %s/%s interrupted: %v", sessionID, fileID, err)
	}
}

func (h *SessionHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Thumbnail(r.Context(), r.PathValue("sessionId"), r.PathValue("fileId"))
	if err != nil {
		h.writeError(w, "Thumbnail", err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(out)
}

func (h *SessionHandler) DownloadAll(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionId")
	out := &archiveResponse{w: w, name: ArchiveName(h.now())}

	if _, err := h.service.WriteArchive(r.Context(), id, out); err != nil {
		if !out.started {
			h.writeError(w, "DownloadAll", err)
			return
		}
		// Headers are gone, the client sees a truncated archive
		log.Printf("[SessionHandler.DownloadAll] Archive for %s aborted after %d bytes: %v", id, out.written, err)
	}
}

func (h *SessionHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFile(r.Context(), r.PathValue("sessionId"), r.PathValue("fileId")); err != nil {
		h.writeError(w, "DeleteFile", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

func (h *SessionHandler) uploadURL(sessionID string) string {
	base := strings.TrimRight(h.cfg.PublicBaseURL, "/")
	if base == "" {
		base = "http://" + h.cfg.LocalIP() + ":" + h.cfg.Port
	}
	return base + "/upload.html?session=" + url.QueryEscape(sessionID)
}

func (h *SessionHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		utils.WriteError(w, http.StatusNotFound, "Session not found", nil)
	case errors.Is(err, domain.ErrFileNotFound):
		utils.WriteError(w, http.StatusNotFound, "File not found", nil)
	case errors.Is(err, domain.ErrNoFiles):
		utils.WriteError(w, http.StatusNotFound, "No files to download", nil)
	case errors.Is(err, domain.ErrNoUploadedFiles):
		utils.WriteError(w, http.StatusBadRequest, "No files uploaded", nil)
	case errors.Is(err, domain.ErrTooManyFiles):
		utils.WriteError(w, http.StatusRequestEntityTooLarge, "Too many files", err)
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		utils.WriteError(w, http.StatusUnsupportedMediaType, "Unsupported media type", err)
	case errors.Is(err, domain.ErrStorageIO):
		log.Printf("[SessionHandler.%s] %v", op, err)
		utils.WriteError(w, http.StatusInternalServerError, "Storage error", nil)
	default:
		log.Printf("[SessionHandler.%s] %v", op, err)
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// ArchiveName is the download name of a session archive
func ArchiveName(t time.Time) string {
	return "files-" + t.UTC().Format("2006-01-02T15-04-05") + ".zip"
}

func contentDisposition(kind, name string) string {
	ascii := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 || r > 0x7e {
			return '_'
		}
		return r
	}, name)
	v := fmt.Sprintf("%s; filename=\"%s\"", kind, ascii)
	if ascii != name {
		v += "; filename*=UTF-8''" + url.PathEscape(name)
	}
	return v
}

// archiveResponse sends the archive headers with the first byte, so a failure
// before that can still be answered with a JSON error
type archiveResponse struct {
	w       http.ResponseWriter
	name    string
	started bool
	written int64
}

func (a *archiveResponse) Write(p []byte) (int, error) {
	if !a.started {
		a.started = true
		a.w.Header().Set("Content-Type", "application/zip")
		a.w.Header().Set("Content-Disposition", contentDisposition("attachment", a.name))
		a.w.WriteHeader(http.StatusOK)
	}
	n, err := a.w.Write(p)
	a.written += int64(n)
	return n, err
}
