package models

// DashboardStats summarises the roster and attendance as of one day.
type DashboardStats struct {
	TotalStudents     int          `json:"total_students"`
	Today             DaySummary   `json:"today"`
	Last7Days         []DailyCount `json:"last_7_days"`
	ClassDistribution []ClassCount `json:"class_distribution"`
}

// DaySummary breaks down one day's marks.
type DaySummary struct {
	Date        Date `json:"date"`
	TotalMarked int  `json:"total_marked"`
	Present     int  `json:"present"`
	Absent      int  `json:"absent"`
	Leave       int  `json:"leave"`
	NotMarked   int  `json:"not_marked"`
}

// DailyCount is the number of records on a date.
type DailyCount struct {
	Date  Date `db:"attendance_date" json:"date"`
	Count int  `db:"count" json:"count"`
}

// ClassCount is the number of students in a class.
type ClassCount struct {
	ClassName    string `db:"class_name" json:"class_name"`
	StudentCount int    `db:"student_count" json:"student_count"`
}

// StatusCount is an intermediate aggregate of records per status.
type StatusCount struct {
	Status AttendanceStatus `db:"status"`
	Count  int              `db:"count"`
}

// UnassignedClass labels students without a class.
const UnassignedClass = "Unassigned"
