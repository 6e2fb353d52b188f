package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/saransh1220/qrdrop/internal/modules/filestorage/domain"
)

const maxStemLength = 100

// FileService provides high-level content store operations
type FileService struct {
	storage domain.FileStorage
	now     func() time.Time
}

// NewFileService creates a new file service
func NewFileService(storage domain.FileStorage) *FileService {
	return &FileService{
		storage: storage,
		now:     time.Now,
	}
}

// StoredName builds a collision resistant name: <unixMillis>-<random>-<sanitized stem><ext>
func (s *FileService) StoredName(originalName string) string {
	ext := path.Ext(originalName)
	stem := SanitizeStem(strings.TrimSuffix(originalName, ext))
	return fmt.Sprintf("%d-%d-%s%s", s.now().UnixMilli(), rand.IntN(1_000_000_000), stem, sanitizeExt(ext))
}

// Key scopes a stored name under its folder (the owning session)
func Key(folder, storedName string) string {
	return folder + "/" + storedName
}

// Save stores the reader under folder/storedName
func (s *FileService) Save(ctx context.Context, folder, storedName string, r io.Reader, contentType string) (string, int64, error) {
	key := Key(folder, storedName)
	n, err := s.storage.Save(ctx, key, r, contentType)
	if err != nil {
		return "", 0, err
	}
	return key, n, nil
}

// Open returns the stored bytes
func (s *FileService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.storage.Open(ctx, key)
}

// Delete removes stored bytes. Missing bytes are not an error.
func (s *FileService) Delete(ctx context.Context, key string) error {
	if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrObjectNotFound) {
		return err
	}
	return nil
}

func sanitizeExt(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range ext {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "." + b.String()
}

// SanitizeStem keeps letters, digits, dot, dash and underscore; everything else becomes '_'
func SanitizeStem(stem string) string {
	var b strings.Builder
	for _, r := range stem {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if runes := []rune(out); len(runes) > maxStemLength {
		out = string(runes[:maxStemLength])
	}
	if out == "" {
		return "file"
	}
	return out
}
