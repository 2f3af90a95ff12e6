package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-api/internal/models"
)

const attendanceColumns = `a.id, a.student_id, a.attendance_date, a.marked_at, a.status, a.marked_by, a.note`

// attendanceOrder is shared by listing and export so both return rows in the
// same sequence.
const attendanceOrder = ` ORDER BY a.attendance_date DESC, a.id ASC`

// AttendanceRepository persists daily attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts record in a single statement. A second record for the same
// student and date violates the unique constraint and the error is returned
// unchanged apart from wrapping.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	query := r.db.Rebind(`INSERT INTO attendance (student_id, attendance_date, marked_at, status, marked_by, note)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		record.StudentID,
		record.AttendanceDate,
		record.Timestamp,
		string(record.Status),
		record.MarkedBy,
		record.Note,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// List returns records matching filter, newest date first.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	from := `FROM attendance a`
	if filter.ClassName != "" {
		from += ` JOIN students s ON s.id = a.student_id`
	}
	where, args := attendanceWhere(filter)
	query := r.db.Rebind(`SELECT ` + attendanceColumns + ` ` + from + where + attendanceOrder)

	records := make([]models.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ListForExport returns the same rows as List joined with student details.
func (r *AttendanceRepository) ListForExport(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceExportRow, error) {
	where, args := attendanceWhere(filter)
	query := r.db.Rebind(`SELECT ` + attendanceColumns + `, s.roll_no, s.name AS student_name, s.class_name
		FROM attendance a JOIN students s ON s.id = a.student_id` + where + attendanceOrder)

	rows := make([]models.AttendanceExportRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance for export: %w", err)
	}
	return rows, nil
}

// attendanceWhere renders filter as a conjunction of predicates. Callers must
// join students as s when ClassName is set.
func attendanceWhere(filter models.AttendanceFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != nil {
		conditions = append(conditions, "a.student_id = ?")
		args = append(args, *filter.StudentID)
	}
	if filter.ClassName != "" {
		conditions = append(conditions, "s.class_name = ?")
		args = append(args, filter.ClassName)
	}
	if filter.FromDate != nil {
		conditions = append(conditions, "a.attendance_date >= ?")
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, "a.attendance_date <= ?")
		args = append(args, *filter.ToDate)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
