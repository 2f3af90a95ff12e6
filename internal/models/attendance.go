package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLeave   AttendanceStatus = "leave"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLeave:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one student's status for one calendar day.
type AttendanceRecord struct {
	ID             int64            `db:"id" json:"id"`
	StudentID      int64            `db:"student_id" json:"student_id"`
	AttendanceDate Date             `db:"attendance_date" json:"attendance_date"`
	Timestamp      time.Time        `db:"marked_at" json:"timestamp"`
	Status         AttendanceStatus `db:"status" json:"status"`
	MarkedBy       *int64           `db:"marked_by" json:"marked_by"`
	Note           *string          `db:"note" json:"note"`
}

// AttendanceExportRow joins a record with the student columns needed for export.
type AttendanceExportRow struct {
	AttendanceRecord
	RollNo      string  `db:"roll_no"`
	StudentName string  `db:"student_name"`
	ClassName   *string `db:"class_name"`
}

// MarkAttendanceRequest is the payload for marking attendance. A missing date
// means today.
type MarkAttendanceRequest struct {
	StudentID int64            `json:"student_id" validate:"required,gt=0"`
	Status    AttendanceStatus `json:"status" validate:"required,attendance_status"`
	Date      *Date            `json:"date"`
	Note      *string          `json:"note"`
}

// AttendanceFilter narrows attendance listings and exports. All set fields
// must match.
type AttendanceFilter struct {
	StudentID *int64
	ClassName string
	FromDate  *Date
	ToDate    *Date
}
