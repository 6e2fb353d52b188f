package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/saransh1220/qrdrop/internal/modules/session/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(id, name string) domain.File {
	return domain.File{ID: id, OriginalName: name, MimeType: "image/jpeg"}
}

func TestRegistry_CreateSession(t *testing.T) {
	r := NewRegistry()

	a := r.CreateSession()
	b := r.CreateSession()
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotNil(t, a.Files)
	assert.False(t, a.CreatedAt.IsZero())
	assert.True(t, r.Exists(a.ID))
	assert.False(t, r.Exists("nope"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_CreateSessionRetriesTakenID(t *testing.T) {
	r := NewRegistry()
	ids := []string{"same", "same", "other"}
	r.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	assert.Equal(t, "same", r.CreateSession().ID)
	assert.Equal(t, "other", r.CreateSession().ID)
}

func TestRegistry_AddFilesKeepsCallOrder(t *testing.T) {
	r := NewRegistry()
	s := r.CreateSession()

	require.NoError(t, r.AddFiles(s.ID, []domain.File{file("1", "a.jpg"), file("2", "b.jpg")}))
	require.NoError(t, r.AddFiles(s.ID, []domain.File{file("3", "a.jpg")}))

	files, err := r.GetFiles(s.ID)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{files[0].ID, files[1].ID, files[2].ID})
	assert.Equal(t, "a.jpg", files[2].OriginalName)
}

func TestRegistry_GetFilesReturnsCopy(t *testing.T) {
	r := NewRegistry()
	s := r.CreateSession()
	require.NoError(t, r.AddFiles(s.ID, []domain.File{file("1", "a.jpg")}))

	files, err := r.GetFiles(s.ID)
	require.NoError(t, err)
	files[0].OriginalName = "mutated"

	again, err := r.GetFiles(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", again[0].OriginalName)

	sess, err := r.GetSession(s.ID)
	require.NoError(t, err)
	sess.Files[0].OriginalName = "mutated"
	f, err := r.GetFile(s.ID, "1")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", f.OriginalName)
}

func TestRegistry_DeleteFile(t *testing.T) {
	r := NewRegistry()
	s := r.CreateSession()
	require.NoError(t, r.AddFiles(s.ID, []domain.File{file("1", "a.jpg"), file("2", "b.jpg"), file("3", "c.jpg")}))

	deleted, err := r.DeleteFile(s.ID, "2")
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", deleted.OriginalName)

	files, _ := r.GetFiles(s.ID)
	require.Len(t, files, 2)
	assert.Equal(t, "1", files[0].ID)
	assert.Equal(t, "3", files[1].ID)

	_, err = r.DeleteFile(s.ID, "2")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	files, _ = r.GetFiles(s.ID)
	assert.Len(t, files, 2)

	_, err = r.GetFile(s.ID, "2")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestRegistry_UnknownSession(t *testing.T) {
	r := NewRegistry()

	_, err := r.GetFiles("x")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = r.GetSession("x")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = r.GetFile("x", "1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, r.AddFiles("x", nil), domain.ErrSessionNotFound)
	_, err = r.DeleteFile("x", "1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	unlock := r.Lock("x")
	unlock()
}

func TestRegistry_LockSerializesPerSession(t *testing.T) {
	r := NewRegistry()
	s := r.CreateSession()
	other := r.CreateSession()

	unlock := r.Lock(s.ID)

	// Another session is independent.
	unlockOther := r.Lock(other.ID)
	unlockOther()

	acquired := make(chan struct{})
	go func() {
		release := r.Lock(s.ID)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock on the same session should block")
	default:
	}

	unlock()
	<-acquired
}

func TestRegistry_ConcurrentAdds(t *testing.T) {
	r := NewRegistry()
	s := r.CreateSession()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := r.Lock(s.ID)
			defer unlock()
			assert.NoError(t, r.AddFiles(s.ID, []domain.File{file(fmt.Sprint(i), "x.jpg")}))
		}(i)
	}
	wg.Wait()

	files, err := r.GetFiles(s.ID)
	require.NoError(t, err)
	assert.Len(t, files, 50)
}
