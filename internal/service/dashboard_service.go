package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-api/internal/models"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
)

// dashboardWindowDays is the length of the trailing daily-count window,
// including the as-of day.
const dashboardWindowDays = 7

type dashboardRepository interface {
	CountStudents(ctx context.Context) (int, error)
	StatusCounts(ctx context.Context, date models.Date) ([]models.StatusCount, error)
	DailyCounts(ctx context.Context, from, to models.Date) ([]models.DailyCount, error)
	ClassDistribution(ctx context.Context) ([]models.ClassCount, error)
}

// DashboardService computes admin dashboard statistics from current data.
type DashboardService struct {
	repo     dashboardRepository
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, logger *zap.Logger, loc *time.Location) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{repo: repo, logger: logger, location: loc, now: time.Now}
}

// Stats summarises the roster and attendance as of asOf, or today when asOf
// is nil. Days in the trailing window without records are omitted.
func (s *DashboardService) Stats(ctx context.Context, asOf *models.Date) (*models.DashboardStats, error) {
	day := models.NewDate(s.now().In(s.location))
	if asOf != nil {
		day = *asOf
	}

	total, err := s.repo.CountStudents(ctx)
	if err != nil {
		return nil, s.internal(err, "failed to count students")
	}

	statuses, err := s.repo.StatusCounts(ctx, day)
	if err != nil {
		return nil, s.internal(err, "failed to count attendance")
	}
	summary := models.DaySummary{Date: day}
	for _, sc := range statuses {
		summary.TotalMarked += sc.Count
		switch sc.Status {
		case models.AttendanceStatusPresent:
			summary.Present = sc.Count
		case models.AttendanceStatusAbsent:
			summary.Absent = sc.Count
		case models.AttendanceStatusLeave:
			summary.Leave = sc.Count
		}
	}
	summary.NotMarked = total - summary.TotalMarked

	daily, err := s.repo.DailyCounts(ctx, day.AddDays(-(dashboardWindowDays - 1)), day)
	if err != nil {
		return nil, s.internal(err, "failed to count daily attendance")
	}

	classes, err := s.repo.ClassDistribution(ctx)
	if err != nil {
		return nil, s.internal(err, "failed to count classes")
	}

	return &models.DashboardStats{
		TotalStudents:     total,
		Today:             summary,
		Last7Days:         daily,
		ClassDistribution: labelClasses(classes),
	}, nil
}

func (s *DashboardService) internal(err error, message string) error {
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// labelClasses names the class-less bucket and merges it with any class
// literally called "Unassigned", then orders by label.
func labelClasses(in []models.ClassCount) []models.ClassCount {
	merged := make(map[string]int, len(in))
	for _, c := range in {
		name := c.ClassName
		if name == "" {
			name = models.UnassignedClass
		}
		merged[name] += c.StudentCount
	}
	out := make([]models.ClassCount, 0, len(merged))
	for name, count := range merged {
		out = append(out, models.ClassCount{ClassName: name, StudentCount: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassName < out[j].ClassName })
	return out
}
