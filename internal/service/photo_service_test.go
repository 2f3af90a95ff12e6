package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-api/internal/models"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
	"github.com/noah-isme/attendance-api/pkg/storage"
)

const testMaxPhoto = 5 * 1024 * 1024

func newPhotoFixture(t *testing.T, students ...models.Student) (*mockStudentRepo, *storage.LocalStorage, string, *PhotoService) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	repo := newMockStudentRepo(students...)
	signer := storage.NewSignedURLSigner("photo-secret", time.Hour)
	svc := NewPhotoService(repo, store, signer, NewMetricsService(), zap.NewNop(), PhotoConfig{
		MaxBytes:          testMaxPhoto,
		AllowedExtensions: []string{".jpg", ".jpeg", ".png"},
	})
	return repo, store, dir, svc
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPhotoServiceUploadStoresFile(t *testing.T) {
	repo, _, dir, svc := newPhotoFixture(t, models.Student{ID: 3, RollNo: "003", Name: "Citra"})
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	student, err := svc.Upload(context.Background(), 3, PhotoUpload{
		Filename: "Portrait.PNG",
		Size:     4,
		Content:  strings.NewReader("\x89PNG"),
	})
	require.NoError(t, err)
	require.NotNil(t, student.PhotoPath)
	assert.True(t, strings.HasPrefix(*student.PhotoPath, "3_1700000000_"))
	assert.True(t, strings.HasSuffix(*student.PhotoPath, ".png"))
	assert.Equal(t, *student.PhotoPath, *repo.students[3].PhotoPath)

	data, err := os.ReadFile(filepath.Join(dir, *student.PhotoPath))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data))
}

func TestPhotoServiceRejectsOversizedUpload(t *testing.T) {
	original := "3_old.png"
	repo, _, dir, svc := newPhotoFixture(t, models.Student{ID: 3, RollNo: "003", Name: "Citra", PhotoPath: &original})
	payload := bytes.Repeat([]byte{0xff}, 6*1024*1024)

	// Declared size within bounds but the body is larger.
	_, err := svc.Upload(context.Background(), 3, PhotoUpload{Filename: "big.jpg", Size: 1024, Content: bytes.NewReader(payload)})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Equal(t, original, *repo.students[3].PhotoPath)
	assert.Empty(t, dirEntries(t, dir))

	_, err = svc.Upload(context.Background(), 3, PhotoUpload{Filename: "big.jpg", Size: int64(len(payload)), Content: bytes.NewReader(payload)})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Equal(t, original, *repo.students[3].PhotoPath)
}

func TestPhotoServiceRejectsExtension(t *testing.T) {
	repo, _, dir, svc := newPhotoFixture(t, models.Student{ID: 1, RollNo: "001", Name: "Ana"})

	_, err := svc.Upload(context.Background(), 1, PhotoUpload{Filename: "script.exe", Size: 3, Content: strings.NewReader("MZ!")})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Nil(t, repo.students[1].PhotoPath)
	assert.Empty(t, dirEntries(t, dir))

	_, err = svc.Upload(context.Background(), 1, PhotoUpload{Filename: "noext", Size: 3, Content: strings.NewReader("abc")})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestPhotoServiceUnknownStudent(t *testing.T) {
	_, _, dir, svc := newPhotoFixture(t)
	_, err := svc.Upload(context.Background(), 5, PhotoUpload{Filename: "a.jpg", Size: 1, Content: strings.NewReader("x")})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	assert.Empty(t, dirEntries(t, dir))
}

func TestPhotoServiceRemovesFileWhenUpdateFails(t *testing.T) {
	repo, _, dir, svc := newPhotoFixture(t, models.Student{ID: 1, RollNo: "001", Name: "Ana"})
	repo.updateErr = errors.New("database is locked")

	_, err := svc.Upload(context.Background(), 1, PhotoUpload{Filename: "a.jpg", Size: 1, Content: strings.NewReader("x")})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal))
	assert.Empty(t, dirEntries(t, dir))
	assert.Nil(t, repo.students[1].PhotoPath)
}

func TestPhotoServiceReplacesPreviousPhoto(t *testing.T) {
	_, store, dir, svc := newPhotoFixture(t, models.Student{ID: 1, RollNo: "001", Name: "Ana"})
	ctx := context.Background()

	first, err := svc.Upload(ctx, 1, PhotoUpload{Filename: "a.jpg", Size: 1, Content: strings.NewReader("1")})
	require.NoError(t, err)
	oldPath := *first.PhotoPath

	second, err := svc.Upload(ctx, 1, PhotoUpload{Filename: "b.png", Size: 1, Content: strings.NewReader("2")})
	require.NoError(t, err)
	assert.NotEqual(t, oldPath, *second.PhotoPath)

	_, err = os.Stat(store.Path(oldPath))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, []string{*second.PhotoPath}, dirEntries(t, dir))
}

func TestPhotoServiceSignedURL(t *testing.T) {
	_, _, _, svc := newPhotoFixture(t,
		models.Student{ID: 1, RollNo: "001", Name: "Ana"},
		models.Student{ID: 2, RollNo: "002", Name: "Budi"},
	)
	ctx := context.Background()

	_, err := svc.URL(ctx, 2)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	_, err = svc.Upload(ctx, 1, PhotoUpload{Filename: "a.jpg", Size: 5, Content: strings.NewReader("photo")})
	require.NoError(t, err)

	link, err := svc.URL(ctx, 1)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.URL, "/photos/"))
	assert.NotEmpty(t, link.ExpiresAt)

	file, err := svc.Open(strings.TrimPrefix(link.URL, "/photos/"))
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "photo", string(data))

	_, err = svc.Open("tampered.token")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
