package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	filedomain "github.com/saransh1220/qrdrop/internal/modules/filestorage/domain"
	"github.com/saransh1220/qrdrop/internal/modules/session/domain"
)

const (
	DefaultSize    = 320
	DefaultQuality = 80
)

type ContentOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Generator renders small JPEG previews of uploaded images
type Generator struct {
	store   ContentOpener
	size    int
	quality int
}

func NewGenerator(store ContentOpener) *Generator {
	return &Generator{store: store, size: DefaultSize, quality: DefaultQuality}
}

// Render fits the image into a size x size box and encodes it as JPEG.
func (g *Generator) Render(ctx context.Context, f domain.File) ([]byte, error) {
	if !f.IsImage() {
		return nil, domain.ErrUnsupportedMediaType
	}

	rc, err := g.store.Open(ctx, f.ContentLocation)
	if err != nil {
		if errors.Is(err, filedomain.ErrObjectNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w: %w", f.ID, domain.ErrStorageIO, err)
	}
	defer rc.Close()

	src, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		// Formats the decoder does not know (heic etc.) end up here
		return nil, fmt.Errorf("failed to decode %s: %w", f.ID, domain.ErrUnsupportedMediaType)
	}

	dst := imaging.Fit(src, g.size, g.size, imaging.Lanczos)
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, dst, imaging.JPEG, imaging.JPEGQuality(g.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
