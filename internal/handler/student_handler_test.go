package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-api/internal/models"
	"github.com/noah-isme/attendance-api/internal/service"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
)

type fakeStudentService struct {
	lastFilter models.StudentFilter
	lastCreate models.CreateStudentRequest
	createErr  error
}

func (f *fakeStudentService) List(_ context.Context, filter models.StudentFilter) ([]models.Student, error) {
	f.lastFilter = filter
	return []models.Student{{ID: 1, RollNo: "001", Name: "Ana"}}, nil
}

func (f *fakeStudentService) Get(_ context.Context, id int64) (*models.Student, error) {
	if id != 1 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return &models.Student{ID: 1, RollNo: "001", Name: "Ana"}, nil
}

func (f *fakeStudentService) Create(_ context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Student{ID: 2, RollNo: req.RollNo, Name: req.Name, ClassName: req.ClassName}, nil
}

type fakePhotoService struct {
	uploadedName string
	uploadedBody []byte
	uploadErr    error
}

func (f *fakePhotoService) Upload(_ context.Context, id int64, upload service.PhotoUpload) (*models.Student, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploadedName = upload.Filename
	f.uploadedBody, _ = io.ReadAll(upload.Content)
	path := "1_1700000000_abc.png"
	return &models.Student{ID: id, RollNo: "001", Name: "Ana", PhotoPath: &path}, nil
}

func (f *fakePhotoService) URL(_ context.Context, id int64) (*models.PhotoURL, error) {
	return &models.PhotoURL{URL: "/photos/token", ExpiresAt: "2024-01-01T00:00:00Z"}, nil
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestStudentHandlerList(t *testing.T) {
	svc := &fakeStudentService{}
	h := NewStudentHandler(svc, &fakePhotoService{}, 0)
	c, rec := newTestContext(http.MethodGet, "/students/?class_name=10A", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10A", svc.lastFilter.ClassName)
	var students []models.Student
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &students))
	assert.Len(t, students, 1)
}

func TestStudentHandlerGet(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{}, &fakePhotoService{}, 0)

	c, rec := newTestContext(http.MethodGet, "/students/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.Get(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/students/9", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/students/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Get(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudentHandlerCreate(t *testing.T) {
	svc := &fakeStudentService{}
	h := NewStudentHandler(svc, &fakePhotoService{}, 0)
	c, rec := newTestContext(http.MethodPost, "/students/", strings.NewReader(`{"roll_no":"002","name":"Budi","class_name":"10B"}`))

	h.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "002", svc.lastCreate.RollNo)
	require.NotNil(t, svc.lastCreate.ClassName)
	assert.Equal(t, "10B", *svc.lastCreate.ClassName)
}

func TestStudentHandlerCreateDuplicate(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{createErr: appErrors.Clone(appErrors.ErrConflict, "roll number already exists")}, &fakePhotoService{}, 0)
	c, rec := newTestContext(http.MethodPost, "/students/", strings.NewReader(`{"roll_no":"001","name":"Ana"}`))

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONFLICT", decodeEnvelope(t, rec).Error.Code)
}

func TestStudentHandlerUploadPhoto(t *testing.T) {
	photos := &fakePhotoService{}
	h := NewStudentHandler(&fakeStudentService{}, photos, 5*1024*1024)
	body, contentType := multipartBody(t, "file", "me.png", []byte("png-bytes"))
	c, rec := newTestContext(http.MethodPost, "/students/1/upload-photo", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	h.UploadPhoto(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "me.png", photos.uploadedName)
	assert.Equal(t, "png-bytes", string(photos.uploadedBody))
}

func TestStudentHandlerUploadPhotoMissingFile(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{}, &fakePhotoService{}, 5*1024*1024)
	body, contentType := multipartBody(t, "other", "me.png", []byte("x"))
	c, rec := newTestContext(http.MethodPost, "/students/1/upload-photo", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	h.UploadPhoto(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
}

func TestStudentHandlerUploadPhotoRejected(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{}, &fakePhotoService{uploadErr: appErrors.Clone(appErrors.ErrValidation, "file too large")}, 5*1024*1024)
	body, contentType := multipartBody(t, "file", "me.png", []byte("x"))
	c, rec := newTestContext(http.MethodPost, "/students/1/upload-photo", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	h.UploadPhoto(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudentHandlerPhotoURL(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{}, &fakePhotoService{}, 0)
	c, rec := newTestContext(http.MethodGet, "/students/1/photo-url", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	h.PhotoURL(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var link models.PhotoURL
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &link))
	assert.Equal(t, "/photos/token", link.URL)
}
