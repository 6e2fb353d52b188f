package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/saransh1220/qrdrop/internal/modules/filestorage/domain"
	"github.com/stretchr/testify/require"
)

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		b.objects[r.URL.Path] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := b.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(noSuchKeyBody))
			return
		}
		w.Write(body)
	case http.MethodDelete:
		delete(b.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}
}

func newTestStorage(t *testing.T, cfg S3Config) (*S3Storage, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string][]byte{}}
	ts := httptest.NewServer(bucket)
	t.Cleanup(ts.Close)

	cfg.BucketName = "bucket"
	cfg.Region = "us-east-1"
	cfg.Endpoint = ts.URL
	cfg.AccessKey = "x"
	cfg.SecretKey = "y"

	st, err := NewS3Storage(context.Background(), cfg)
	require.NoError(t, err)
	return st, bucket
}

func TestS3Storage_SaveOpenDelete(t *testing.T) {
	st, bucket := newTestStorage(t, S3Config{})
	ctx := context.Background()

	n, err := st.Save(ctx, "sess/a.jpg", bytes.NewReader([]byte("hello")), "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	require.Contains(t, bucket.objects, "/bucket/sess/a.jpg")

	rc, err := st.Open(ctx, "sess/a.jpg")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "hello", string(body))

	require.NoError(t, st.Delete(ctx, "sess/a.jpg"))

	require.NotContains(t, bucket.objects, "/bucket/sess/a.jpg")

	_, err = st.Open(ctx, "sess/a.jpg")
	require.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestS3Storage_OpenMissing(t *testing.T) {
	st, _ := newTestStorage(t, S3Config{})

	_, err := st.Open(context.Background(), "sess/missing.jpg")
	require.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestS3Storage_Prefix(t *testing.T) {
	st, bucket := newTestStorage(t, S3Config{Prefix: "drops/"})

	_, err := st.Save(context.Background(), "sess/a.jpg", strings.NewReader("x"), "image/jpeg")
	require.NoError(t, err)
	require.Contains(t, bucket.objects, "/bucket/drops/sess/a.jpg")
}

func TestS3Storage_Errors(t *testing.T) {
	st, err := NewS3Storage(context.Background(), S3Config{
		BucketName: "bucket", Region: "us-east-1", Endpoint: "http://127.0.0.1:1", AccessKey: "x", SecretKey: "y",
	})
	require.NoError(t, err)

	_, err = st.Save(context.Background(), "k", bytes.NewReader([]byte("x")), "image/png")
	require.Error(t, err)

	err = st.Delete(context.Background(), "k")
	require.Error(t, err)
}
