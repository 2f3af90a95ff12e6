package service

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-api/internal/models"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
)

// memoryAttendanceStore keeps records in memory and enforces the same
// constraints as the schema: one record per student and date, and an existing
// student for every record.
type memoryAttendanceStore struct {
	students *mockStudentRepo
	records  []models.AttendanceRecord
	nextID   int64
}

func newMemoryAttendanceStore(students *mockStudentRepo) *memoryAttendanceStore {
	return &memoryAttendanceStore{students: students}
}

func (m *memoryAttendanceStore) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if _, ok := m.students.students[record.StudentID]; !ok {
		return &pq.Error{Code: "23503"}
	}
	for _, r := range m.records {
		if r.StudentID == record.StudentID && r.AttendanceDate.String() == record.AttendanceDate.String() {
			return &pq.Error{Code: "23505"}
		}
	}
	m.nextID++
	record.ID = m.nextID
	m.records = append(m.records, *record)
	return nil
}

func (m *memoryAttendanceStore) matches(r models.AttendanceRecord, filter models.AttendanceFilter) bool {
	if filter.StudentID != nil && r.StudentID != *filter.StudentID {
		return false
	}
	if filter.ClassName != "" {
		s := m.students.students[r.StudentID]
		if s.ClassName == nil || *s.ClassName != filter.ClassName {
			return false
		}
	}
	if filter.FromDate != nil && r.AttendanceDate.Before(*filter.FromDate) {
		return false
	}
	if filter.ToDate != nil && filter.ToDate.Before(r.AttendanceDate) {
		return false
	}
	return true
}

func (m *memoryAttendanceStore) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	out := make([]models.AttendanceRecord, 0)
	for _, r := range m.records {
		if m.matches(r, filter) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AttendanceDate.String() != out[j].AttendanceDate.String() {
			return out[j].AttendanceDate.Before(out[i].AttendanceDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryAttendanceStore) ListForExport(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceExportRow, error) {
	records, err := m.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	rows := make([]models.AttendanceExportRow, 0, len(records))
	for _, r := range records {
		s := m.students.students[r.StudentID]
		rows = append(rows, models.AttendanceExportRow{AttendanceRecord: r, RollNo: s.RollNo, StudentName: s.Name, ClassName: s.ClassName})
	}
	return rows, nil
}

func (m *memoryAttendanceStore) CountStudents(ctx context.Context) (int, error) {
	return len(m.students.students), nil
}

func (m *memoryAttendanceStore) StatusCounts(ctx context.Context, date models.Date) ([]models.StatusCount, error) {
	counts := map[models.AttendanceStatus]int{}
	for _, r := range m.records {
		if r.AttendanceDate.String() == date.String() {
			counts[r.Status]++
		}
	}
	out := make([]models.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, models.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (m *memoryAttendanceStore) DailyCounts(ctx context.Context, from, to models.Date) ([]models.DailyCount, error) {
	counts := map[string]int{}
	for _, r := range m.records {
		if !r.AttendanceDate.Before(from) && !to.Before(r.AttendanceDate) {
			counts[r.AttendanceDate.String()]++
		}
	}
	out := make([]models.DailyCount, 0, len(counts))
	for day, n := range counts {
		d, _ := models.ParseDate(day)
		out = append(out, models.DailyCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memoryAttendanceStore) ClassDistribution(ctx context.Context) ([]models.ClassCount, error) {
	counts := map[string]int{}
	for _, s := range m.students.students {
		name := ""
		if s.ClassName != nil {
			name = *s.ClassName
		}
		counts[name]++
	}
	out := make([]models.ClassCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.ClassCount{ClassName: name, StudentCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassName < out[j].ClassName })
	return out, nil
}

func mustDate(t *testing.T, raw string) models.Date {
	t.Helper()
	d, err := models.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func datePtr(t *testing.T, raw string) *models.Date {
	d := mustDate(t, raw)
	return &d
}

func newAttendanceFixture(t *testing.T) (*mockStudentRepo, *memoryAttendanceStore, *AttendanceService) {
	t.Helper()
	students := newMockStudentRepo(
		models.Student{ID: 1, RollNo: "001", Name: "Ana", ClassName: strPtr("10A")},
		models.Student{ID: 2, RollNo: "002", Name: "Budi"},
	)
	store := newMemoryAttendanceStore(students)
	svc := NewAttendanceService(store, students, nil, nil, zap.NewNop(), time.UTC)
	return students, store, svc
}

func TestAttendanceServiceMarkKeepsFirstRecord(t *testing.T) {
	_, store, svc := newAttendanceFixture(t)
	ctx := context.Background()
	day := datePtr(t, "2024-01-01")

	first, err := svc.Mark(ctx, 9, models.MarkAttendanceRequest{StudentID: 1, Status: "present", Date: day})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusPresent, first.Status)
	require.NotNil(t, first.MarkedBy)
	assert.Equal(t, int64(9), *first.MarkedBy)

	_, err = svc.Mark(ctx, 9, models.MarkAttendanceRequest{StudentID: 1, Status: "absent", Date: day})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAlreadyMarked))

	require.Len(t, store.records, 1)
	assert.Equal(t, models.AttendanceStatusPresent, store.records[0].Status)
}

func TestAttendanceServiceMarkUnknownStudent(t *testing.T) {
	_, store, svc := newAttendanceFixture(t)

	_, err := svc.Mark(context.Background(), 1, models.MarkAttendanceRequest{StudentID: 42, Status: "present"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	assert.Empty(t, store.records)
}

func TestAttendanceServiceMarkValidation(t *testing.T) {
	_, store, svc := newAttendanceFixture(t)
	ctx := context.Background()

	_, err := svc.Mark(ctx, 1, models.MarkAttendanceRequest{StudentID: 1, Status: "late"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.Mark(ctx, 1, models.MarkAttendanceRequest{StudentID: 0, Status: "present"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Empty(t, store.records)

	for _, status := range []models.AttendanceStatus{"PRESENT", " leave", "Absent"} {
		_, err = svc.Mark(ctx, 1, models.MarkAttendanceRequest{StudentID: 1, Status: status})
		assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation), "status %q", status)
	}
	assert.Empty(t, store.records)

	record, err := svc.Mark(ctx, 1, models.MarkAttendanceRequest{StudentID: 1, Status: "leave"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusLeave, record.Status)

	long := strings.Repeat("n", 2000)
	record, err = svc.Mark(ctx, 1, models.MarkAttendanceRequest{StudentID: 2, Status: "absent", Note: &long})
	require.NoError(t, err)
	require.NotNil(t, record.Note)
	assert.Len(t, *record.Note, 2000)
}

func TestAttendanceServiceMarkDefaultsToToday(t *testing.T) {
	_, _, svc := newAttendanceFixture(t)
	jakarta := time.FixedZone("WIB", 7*60*60)
	svc.location = jakarta
	// 20:30 UTC on the 1st is already the 2nd in UTC+7.
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 20, 30, 0, 0, time.UTC) }

	record, err := svc.Mark(context.Background(), 1, models.MarkAttendanceRequest{StudentID: 2, Status: "absent"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", record.AttendanceDate.String())
	assert.Equal(t, time.UTC, record.Timestamp.Location())
}

func TestAttendanceServiceListFilters(t *testing.T) {
	_, _, svc := newAttendanceFixture(t)
	ctx := context.Background()

	for _, req := range []models.MarkAttendanceRequest{
		{StudentID: 1, Status: "present", Date: datePtr(t, "2024-01-01")},
		{StudentID: 2, Status: "absent", Date: datePtr(t, "2024-01-01")},
		{StudentID: 1, Status: "leave", Date: datePtr(t, "2024-01-03")},
	} {
		_, err := svc.Mark(ctx, 1, req)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, models.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-01-03", all[0].AttendanceDate.String())

	studentID := int64(1)
	byStudent, err := svc.List(ctx, models.AttendanceFilter{StudentID: &studentID, FromDate: datePtr(t, "2024-01-02")})
	require.NoError(t, err)
	require.Len(t, byStudent, 1)
	assert.Equal(t, models.AttendanceStatusLeave, byStudent[0].Status)

	byClass, err := svc.List(ctx, models.AttendanceFilter{ClassName: "10A", ToDate: datePtr(t, "2024-01-01")})
	require.NoError(t, err)
	require.Len(t, byClass, 1)
	assert.Equal(t, int64(1), byClass[0].StudentID)

	_, err = svc.List(ctx, models.AttendanceFilter{FromDate: datePtr(t, "2024-01-05"), ToDate: datePtr(t, "2024-01-01")})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
