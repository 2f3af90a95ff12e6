package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-api/internal/models"
	"github.com/noah-isme/attendance-api/pkg/database"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByRollNo(ctx context.Context, rollNo string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	ListWithoutPhoto(ctx context.Context) ([]models.StudentSummary, error)
}

// StudentService handles roster use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students ordered by name, optionally for one class.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	filter.ClassName = strings.TrimSpace(filter.ClassName)
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student. Roll numbers are unique; a concurrent
// duplicate that slips past the pre-check is caught by the storage constraint.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	req.RollNo = strings.TrimSpace(req.RollNo)
	req.Name = strings.TrimSpace(req.Name)
	if req.ClassName != nil {
		trimmed := strings.TrimSpace(*req.ClassName)
		req.ClassName = &trimmed
		if trimmed == "" {
			req.ClassName = nil
		}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	exists, err := s.repo.ExistsByRollNo(ctx, req.RollNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate roll number")
	}
	if exists {
		return nil, rollNoTaken()
	}

	student := &models.Student{RollNo: req.RollNo, Name: req.Name, ClassName: req.ClassName}
	if err := s.repo.Create(ctx, student); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, rollNoTaken()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// WithoutPhoto lists students that have no photo recorded.
func (s *StudentService) WithoutPhoto(ctx context.Context) (*models.StudentsWithoutPhoto, error) {
	students, err := s.repo.ListWithoutPhoto(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students without photo")
	}
	return &models.StudentsWithoutPhoto{Count: len(students), Students: students}, nil
}

func rollNoTaken() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrConflict, "roll number already exists")
}
