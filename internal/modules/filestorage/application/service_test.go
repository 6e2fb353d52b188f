package application_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/saransh1220/qrdrop/internal/modules/filestorage/application"
	"github.com/saransh1220/qrdrop/internal/modules/filestorage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStorage struct {
	saveFn   func(context.Context, string, io.Reader, string) (int64, error)
	openFn   func(context.Context, string) (io.ReadCloser, error)
	deleteFn func(context.Context, string) error
}

func (m mockStorage) Save(ctx context.Context, key string, r io.Reader, ct string) (int64, error) {
	return m.saveFn(ctx, key, r, ct)
}
func (m mockStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return m.openFn(ctx, key)
}
func (m mockStorage) Delete(ctx context.Context, key string) error { return m.deleteFn(ctx, key) }

func TestFileService_SaveOpenDelete(t *testing.T) {
	var savedKey string
	svc := application.NewFileService(mockStorage{
		saveFn: func(_ context.Context, key string, r io.Reader, ct string) (int64, error) {
			savedKey = key
			assert.Equal(t, "image/png", ct)
			return io.Copy(io.Discard, r)
		},
		openFn: func(context.Context, string) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewBufferString("abc")), nil
		},
		deleteFn: func(context.Context, string) error { return nil },
	})

	key, n, err := svc.Save(context.Background(), "sess", "1-2-a.png", bytes.NewBufferString("abc"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "sess/1-2-a.png", key)
	assert.Equal(t, savedKey, key)
	assert.Equal(t, int64(3), n)

	rc, err := svc.Open(context.Background(), key)
	require.NoError(t, err)
	rc.Close()

	require.NoError(t, svc.Delete(context.Background(), key))
}

func TestFileService_DeleteToleratesMissing(t *testing.T) {
	svc := application.NewFileService(mockStorage{
		deleteFn: func(context.Context, string) error { return domain.ErrObjectNotFound },
	})
	require.NoError(t, svc.Delete(context.Background(), "k"))

	svc = application.NewFileService(mockStorage{
		deleteFn: func(context.Context, string) error { return errors.New("disk on fire") },
	})
	require.Error(t, svc.Delete(context.Background(), "k"))
}

func TestFileService_SaveError(t *testing.T) {
	svc := application.NewFileService(mockStorage{
		saveFn: func(context.Context, string, io.Reader, string) (int64, error) { return 0, errors.New("x") },
	})
	_, _, err := svc.Save(context.Background(), "s", "n", bytes.NewBufferString("x"), "image/png")
	require.Error(t, err)
}

func TestFileService_StoredName(t *testing.T) {
	svc := application.NewFileService(mockStorage{})
	pattern := regexp.MustCompile(`^\d+-\d+-holiday_photo\.jpg$`)

	a := svc.StoredName("holiday photo.jpg")
	b := svc.StoredName("holiday photo.jpg")
	assert.Regexp(t, pattern, a)
	assert.Regexp(t, pattern, b)

	assert.Regexp(t, regexp.MustCompile(`^\d+-\d+-file$`), svc.StoredName(""))
	assert.Regexp(t, regexp.MustCompile(`^\d+-\d+-clip\.mp4$`), svc.StoredName("clip.mp4"))
}

func TestSanitizeStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo", "photo"},
		{"my photo (1)", "my_photo__1_"},
		{"../../etc", "_.._etc"},
		{"", "file"},
		{"...", "file"},
		{"été", "été"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, application.SanitizeStem(tt.in))
		})
	}
}
