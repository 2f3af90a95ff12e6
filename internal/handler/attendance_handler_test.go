package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-api/internal/models"
	"github.com/noah-isme/attendance-api/internal/service"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
)

type fakeAttendanceService struct {
	lastMarkedBy int64
	lastMark     models.MarkAttendanceRequest
	lastFilter   models.AttendanceFilter
	markErr      error
}

func (f *fakeAttendanceService) Mark(_ context.Context, markedBy int64, req models.MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	f.lastMarkedBy = markedBy
	f.lastMark = req
	if f.markErr != nil {
		return nil, f.markErr
	}
	return &models.AttendanceRecord{ID: 1, StudentID: req.StudentID, Status: req.Status}, nil
}

func (f *fakeAttendanceService) List(_ context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	f.lastFilter = filter
	return []models.AttendanceRecord{{ID: 1}, {ID: 2}}, nil
}

type fakeExporter struct {
	lastFormat string
	lastFilter models.AttendanceFilter
}

func (f *fakeExporter) Export(_ context.Context, format string, filter models.AttendanceFilter) (*service.ExportResult, error) {
	f.lastFormat = format
	f.lastFilter = filter
	if format == "xml" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	return &service.ExportResult{
		Filename:    "attendance_export.csv",
		ContentType: "text/csv; charset=utf-8",
		Body:        []byte("ID,Roll No\r\n"),
	}, nil
}

func TestAttendanceHandlerMark(t *testing.T) {
	svc := &fakeAttendanceService{}
	h := NewAttendanceHandler(svc, &fakeExporter{})
	c, rec := newTestContext(http.MethodPost, "/attendance/mark", strings.NewReader(`{"student_id":3,"status":"present","date":"2024-01-01","note":"ok"}`))
	withUser(c, 7)

	h.Mark(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), svc.lastMarkedBy)
	assert.Equal(t, int64(3), svc.lastMark.StudentID)
	require.NotNil(t, svc.lastMark.Date)
	assert.Equal(t, "2024-01-01", svc.lastMark.Date.String())
	require.NotNil(t, svc.lastMark.Note)
	assert.Equal(t, "ok", *svc.lastMark.Note)
}

func TestAttendanceHandlerMarkBadDate(t *testing.T) {
	h := NewAttendanceHandler(&fakeAttendanceService{}, &fakeExporter{})
	c, rec := newTestContext(http.MethodPost, "/attendance/mark", strings.NewReader(`{"student_id":3,"status":"present","date":"01/02/2024"}`))
	withUser(c, 7)

	h.Mark(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerMarkAlreadyMarked(t *testing.T) {
	h := NewAttendanceHandler(&fakeAttendanceService{markErr: appErrors.Clone(appErrors.ErrAlreadyMarked, "")}, &fakeExporter{})
	c, rec := newTestContext(http.MethodPost, "/attendance/mark", strings.NewReader(`{"student_id":3,"status":"present"}`))
	withUser(c, 7)

	h.Mark(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_MARKED", decodeEnvelope(t, rec).Error.Code)
}

func TestAttendanceHandlerListParsesFilters(t *testing.T) {
	svc := &fakeAttendanceService{}
	h := NewAttendanceHandler(svc, &fakeExporter{})
	c, rec := newTestContext(http.MethodGet, "/attendance/?student_id=3&class_name=10A&from_date=2024-01-01&to_date=2024-01-31", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastFilter.StudentID)
	assert.Equal(t, int64(3), *svc.lastFilter.StudentID)
	assert.Equal(t, "10A", svc.lastFilter.ClassName)
	assert.Equal(t, "2024-01-01", svc.lastFilter.FromDate.String())
	assert.Equal(t, "2024-01-31", svc.lastFilter.ToDate.String())

	env := decodeEnvelope(t, rec)
	var records []models.AttendanceRecord
	require.NoError(t, json.Unmarshal(env.Data, &records))
	assert.Len(t, records, 2)
	assert.EqualValues(t, 2, env.Meta["count"])
}

func TestAttendanceHandlerListRejectsBadQuery(t *testing.T) {
	h := NewAttendanceHandler(&fakeAttendanceService{}, &fakeExporter{})
	for _, target := range []string{
		"/attendance/?student_id=abc",
		"/attendance/?student_id=-1",
		"/attendance/?from_date=2024-13-01",
		"/attendance/?to_date=yesterday",
	} {
		c, rec := newTestContext(http.MethodGet, target, nil)
		h.List(c)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestAttendanceHandlerExport(t *testing.T) {
	exporter := &fakeExporter{}
	h := NewAttendanceHandler(&fakeAttendanceService{}, exporter)
	c, rec := newTestContext(http.MethodGet, "/attendance/export?class_name=10A", nil)

	h.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=attendance_export.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID,Roll No\r\n", rec.Body.String())
	assert.Equal(t, "", exporter.lastFormat)
	assert.Equal(t, "10A", exporter.lastFilter.ClassName)

	c, rec = newTestContext(http.MethodGet, "/attendance/export?format=XML", nil)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "xml", exporter.lastFormat)
}
