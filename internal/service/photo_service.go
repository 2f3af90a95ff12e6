package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-api/internal/models"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
	"github.com/noah-isme/attendance-api/pkg/storage"
)

type photoStudentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	UpdatePhotoPath(ctx context.Context, id int64, path string) error
}

type photoStorage interface {
	SaveStream(name string, r io.Reader, maxBytes int64) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type photoURLSigner interface {
	Generate(subject, relPath string) (string, time.Time, error)
	Parse(token string) (subject, relPath string, err error)
}

// PhotoConfig bounds accepted uploads.
type PhotoConfig struct {
	MaxBytes          int64
	AllowedExtensions []string
	// URLPrefix is prepended to signed tokens when building download links.
	URLPrefix string
}

// PhotoUpload describes an incoming photo file.
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// PhotoService stores student photos and issues download links.
type PhotoService struct {
	repo    photoStudentRepository
	store   photoStorage
	signer  photoURLSigner
	metrics *MetricsService
	logger  *zap.Logger
	config  PhotoConfig
	allowed map[string]struct{}
	now     func() time.Time
}

// NewPhotoService constructs a PhotoService.
func NewPhotoService(repo photoStudentRepository, store photoStorage, signer photoURLSigner, metrics *MetricsService, logger *zap.Logger, cfg PhotoConfig) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 5 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/photos/"
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &PhotoService{
		repo:    repo,
		store:   store,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		config:  cfg,
		allowed: allowed,
		now:     time.Now,
	}
}

// Upload validates and stores a photo for studentID and records its path.
// On any failure the student's previous photo path is left untouched.
func (s *PhotoService) Upload(ctx context.Context, studentID int64, upload PhotoUpload) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if _, ok := s.allowed[ext]; !ok {
		s.metrics.RecordPhotoUpload(PhotoUploadRejected)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type not allowed, use one of %s", strings.Join(s.config.AllowedExtensions, ", ")))
	}
	if upload.Size > s.config.MaxBytes {
		s.metrics.RecordPhotoUpload(PhotoUploadRejected)
		return nil, s.tooLarge()
	}

	name, err := s.fileName(studentID, ext)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to name photo")
	}

	if _, err := s.store.SaveStream(name, upload.Content, s.config.MaxBytes); err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			s.metrics.RecordPhotoUpload(PhotoUploadRejected)
			return nil, s.tooLarge()
		}
		s.metrics.RecordPhotoUpload(PhotoUploadFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}

	if err := s.repo.UpdatePhotoPath(ctx, studentID, name); err != nil {
		if delErr := s.store.Delete(name); delErr != nil {
			s.logger.Warn("failed to remove orphaned photo", zap.String("file", name), zap.Error(delErr))
		}
		s.metrics.RecordPhotoUpload(PhotoUploadFailed)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record photo")
	}

	if student.HasPhoto() && *student.PhotoPath != name {
		if err := s.store.Delete(*student.PhotoPath); err != nil {
			s.logger.Warn("failed to remove replaced photo", zap.String("file", *student.PhotoPath), zap.Error(err))
		}
	}

	s.metrics.RecordPhotoUpload(PhotoUploadStored)
	student.PhotoPath = &name
	return student, nil
}

// URL returns a signed, expiring download link for a student's photo.
func (s *PhotoService) URL(ctx context.Context, studentID int64) (*models.PhotoURL, error) {
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.HasPhoto() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no photo")
	}

	token, expiresAt, err := s.signer.Generate(strconv.FormatInt(student.ID, 10), *student.PhotoPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign photo url")
	}
	return &models.PhotoURL{
		URL:       s.config.URLPrefix + token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Open resolves a signed token to the stored photo. The caller closes the file.
func (s *PhotoService) Open(token string) (*os.File, error) {
	_, path, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "photo link invalid or expired")
	}
	file, err := s.store.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidName) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open photo")
	}
	return file, nil
}

func (s *PhotoService) tooLarge() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file too large, maximum is %d bytes", s.config.MaxBytes))
}

// fileName builds "<student>_<unix>_<suffix><ext>". The suffix keeps names
// unique when two uploads land in the same second.
func (s *PhotoService) fileName(studentID int64, ext string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	suffix := strings.ReplaceAll(id.String(), "-", "")[20:]
	return fmt.Sprintf("%d_%d_%s%s", studentID, s.now().Unix(), suffix, ext), nil
}
