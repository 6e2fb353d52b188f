package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	filedomain "github.com/saransh1220/qrdrop/internal/modules/filestorage/domain"
	"github.com/saransh1220/qrdrop/internal/modules/session/domain"
)

// ContentOpener reads stored bytes by key
type ContentOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Builder streams session files into a ZIP archive
type Builder struct {
	store ContentOpener
	level int
}

func NewBuilder(store ContentOpener) *Builder {
	return &Builder{store: store, level: flate.BestCompression}
}

// Write streams one entry per file, named by its original name, straight to w.
// Files whose bytes are gone from the store are skipped. Nothing is buffered beyond
// the compressor window, so a slow w slows the producer down.
func (b *Builder) Write(ctx context.Context, w io.Writer, files []domain.File) (domain.ArchiveStats, error) {
	var stats domain.ArchiveStats
	if len(files) == 0 {
		return stats, domain.ErrNoFiles
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, b.level)
	})

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		n, err := b.addEntry(ctx, zw, f)
		if errors.Is(err, filedomain.ErrObjectNotFound) {
			log.Printf("[Archive] Skipping %s (%s): bytes missing", f.OriginalName, f.ID)
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.Entries++
		stats.Bytes += n
	}

	if err := zw.Close(); err != nil {
		return stats, fmt.Errorf("failed to finalize archive: %w: %w", domain.ErrStorageIO, err)
	}
	return stats, nil
}

func (b *Builder) addEntry(ctx context.Context, zw *zip.Writer, f domain.File) (int64, error) {
	rc, err := b.store.Open(ctx, f.ContentLocation)
	if err != nil {
		if errors.Is(err, filedomain.ErrObjectNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to open %s: %w: %w", f.OriginalName, domain.ErrStorageIO, err)
	}
	defer rc.Close()

	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     f.OriginalName,
		Method:   zip.Deflate,
		Modified: f.UploadedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add %s: %w: %w", f.OriginalName, domain.ErrStorageIO, err)
	}

	n, err := io.Copy(entry, &contextReader{ctx: ctx, r: rc})
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w: %w", f.OriginalName, domain.ErrStorageIO, err)
	}
	return n, nil
}

// contextReader stops a copy once the request is gone
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
