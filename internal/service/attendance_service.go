package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-api/internal/models"
	"github.com/noah-isme/attendance-api/pkg/database"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
)

type attendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

type studentLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

// AttendanceService records and lists daily attendance.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentLookup
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service. Dates defaulted to
// "today" are computed in loc.
func NewAttendanceService(repo attendanceRepository, students studentLookup, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, loc *time.Location) *AttendanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceService{
		repo:      repo,
		students:  students,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		location:  loc,
		now:       time.Now,
	}
}

// Today returns the current calendar date in the service location.
func (s *AttendanceService) Today() models.Date {
	return models.NewDate(s.now().In(s.location))
}

// Mark records one student's status for a day. At most one record exists per
// student and date: a second attempt fails with ALREADY_MARKED and the first
// record is kept as is.
func (s *AttendanceService) Mark(ctx context.Context, markedBy int64, req models.MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	date := s.Today()
	if req.Date != nil {
		date = *req.Date
	}

	record := &models.AttendanceRecord{
		StudentID:      req.StudentID,
		AttendanceDate: date,
		Timestamp:      s.now().UTC(),
		Status:         req.Status,
		Note:           req.Note,
	}
	if markedBy > 0 {
		record.MarkedBy = &markedBy
	}

	if err := s.repo.Create(ctx, record); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			s.metrics.RecordMarkConflict()
			return nil, appErrors.Clone(appErrors.ErrAlreadyMarked, "")
		case database.IsForeignKeyViolation(err):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
		}
	}

	s.metrics.RecordMarked(record.Status)
	s.logger.Debug("attendance marked",
		zap.Int64("student_id", record.StudentID),
		zap.String("date", record.AttendanceDate.String()),
		zap.String("status", string(record.Status)),
	)
	return record, nil
}

// List returns records matching every set field of filter, newest date first.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	if err := ValidateAttendanceFilter(filter); err != nil {
		return nil, err
	}
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ValidateAttendanceFilter rejects inverted date ranges.
func ValidateAttendanceFilter(filter models.AttendanceFilter) error {
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return appErrors.Clone(appErrors.ErrValidation, "from_date must not be after to_date")
	}
	return nil
}
