package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// CountStudents returns the roster size.
func (r *DashboardRepository) CountStudents(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// StatusCounts returns how many records of each status exist on date.
func (r *DashboardRepository) StatusCounts(ctx context.Context, date models.Date) ([]models.StatusCount, error) {
	query := r.db.Rebind(`SELECT status, COUNT(*) AS count FROM attendance WHERE attendance_date = ? GROUP BY status ORDER BY status`)
	counts := make([]models.StatusCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query, date); err != nil {
		return nil, fmt.Errorf("count attendance by status: %w", err)
	}
	return counts, nil
}

// DailyCounts returns per-day record counts within [from, to]. Days without
// records are absent from the result.
func (r *DashboardRepository) DailyCounts(ctx context.Context, from, to models.Date) ([]models.DailyCount, error) {
	query := r.db.Rebind(`SELECT attendance_date, COUNT(*) AS count FROM attendance
		WHERE attendance_date >= ? AND attendance_date <= ?
		GROUP BY attendance_date ORDER BY attendance_date ASC`)
	counts := make([]models.DailyCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("count attendance by day: %w", err)
	}
	return counts, nil
}

// ClassDistribution counts students per class. NULL and empty class names are
// reported together under an empty name.
func (r *DashboardRepository) ClassDistribution(ctx context.Context) ([]models.ClassCount, error) {
	const query = `SELECT COALESCE(class_name, '') AS class_name, COUNT(*) AS student_count
		FROM students GROUP BY COALESCE(class_name, '') ORDER BY class_name`
	counts := make([]models.ClassCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count students by class: %w", err)
	}
	return counts, nil
}
