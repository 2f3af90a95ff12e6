package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-api/internal/models"
)

const studentColumns = `id, roll_no, name, class_name, photo_path`

// StudentRepository manages persistence for the roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students ordered by name, optionally limited to one class.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students`
	var args []interface{}
	if filter.ClassName != "" {
		query += ` WHERE class_name = ?`
		args = append(args, filter.ClassName)
	}
	query += ` ORDER BY name ASC, id ASC`

	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := r.db.Rebind(`SELECT ` + studentColumns + ` FROM students WHERE id = ?`)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// ExistsByRollNo reports whether a roll number is taken.
func (r *StudentRepository) ExistsByRollNo(ctx context.Context, rollNo string) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(1) FROM students WHERE roll_no = ?`)
	var count int
	if err := r.db.GetContext(ctx, &count, query, rollNo); err != nil {
		return false, fmt.Errorf("check roll number: %w", err)
	}
	return count > 0, nil
}

// Create inserts a student and sets its generated id.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := r.db.Rebind(`INSERT INTO students (roll_no, name, class_name, photo_path) VALUES (?, ?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, query, student.RollNo, student.Name, student.ClassName, student.PhotoPath).Scan(&student.ID); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// UpdatePhotoPath records the stored photo for a student. It returns
// sql.ErrNoRows when the student does not exist.
func (r *StudentRepository) UpdatePhotoPath(ctx context.Context, id int64, path string) error {
	query := r.db.Rebind(`UPDATE students SET photo_path = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, path, id)
	if err != nil {
		return fmt.Errorf("update student photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student photo: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListWithoutPhoto returns students whose photo path is NULL or empty.
func (r *StudentRepository) ListWithoutPhoto(ctx context.Context) ([]models.StudentSummary, error) {
	const query = `SELECT id, roll_no, name FROM students WHERE photo_path IS NULL OR photo_path = '' ORDER BY id ASC`
	students := make([]models.StudentSummary, 0)
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students without photo: %w", err)
	}
	return students, nil
}
