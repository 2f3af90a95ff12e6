package models

// Student is a roster entry.
type Student struct {
	ID        int64   `db:"id" json:"id"`
	RollNo    string  `db:"roll_no" json:"roll_no"`
	Name      string  `db:"name" json:"name"`
	ClassName *string `db:"class_name" json:"class_name"`
	PhotoPath *string `db:"photo_path" json:"photo_path"`
}

// HasPhoto reports whether a photo path is recorded.
func (s *Student) HasPhoto() bool {
	return s.PhotoPath != nil && *s.PhotoPath != ""
}

// CreateStudentRequest is the payload for adding a student.
type CreateStudentRequest struct {
	RollNo    string  `json:"roll_no" validate:"required,max=64"`
	Name      string  `json:"name" validate:"required,max=200"`
	ClassName *string `json:"class_name" validate:"omitempty,max=64"`
}

// StudentFilter scopes roster listings.
type StudentFilter struct {
	ClassName string
}

// StudentSummary is the compact student view used in admin reports.
type StudentSummary struct {
	ID     int64  `db:"id" json:"id"`
	RollNo string `db:"roll_no" json:"roll_no"`
	Name   string `db:"name" json:"name"`
}

// StudentsWithoutPhoto lists students missing a photo.
type StudentsWithoutPhoto struct {
	Count    int              `json:"count"`
	Students []StudentSummary `json:"students"`
}

// PhotoURL is a time-limited download link for a student photo.
type PhotoURL struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
