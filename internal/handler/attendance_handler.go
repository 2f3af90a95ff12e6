package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-api/internal/models"
	"github.com/noah-isme/attendance-api/internal/service"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
	"github.com/noah-isme/attendance-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, markedBy int64, req models.MarkAttendanceRequest) (*models.AttendanceRecord, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

type attendanceExporter interface {
	Export(ctx context.Context, format string, filter models.AttendanceFilter) (*service.ExportResult, error)
}

// AttendanceHandler exposes attendance marking, listing and export.
type AttendanceHandler struct {
	attendance attendanceService
	exporter   attendanceExporter
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService, exporter attendanceExporter) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, exporter: exporter}
}

// Mark godoc
// @Summary Mark attendance
// @Description Records one status per student per day. A repeat for the same day fails with ALREADY_MARKED.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	record, err := h.attendance.Mark(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// List godoc
// @Summary List attendance
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param student_id query int false "Student ID"
// @Param class_name query string false "Class name"
// @Param from_date query string false "Inclusive start date (YYYY-MM-DD)"
// @Param to_date query string false "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/ [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	filter, err := attendanceFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, map[string]interface{}{"count": len(records)})
}

// Export godoc
// @Summary Export attendance
// @Description Downloads the filtered records as CSV (default) or PDF.
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param student_id query int false "Student ID"
// @Param class_name query string false "Class name"
// @Param from_date query string false "Inclusive start date (YYYY-MM-DD)"
// @Param to_date query string false "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	filter, err := attendanceFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	result, err := h.exporter.Export(c.Request.Context(), format, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

func attendanceFilterFromQuery(c *gin.Context) (models.AttendanceFilter, error) {
	var filter models.AttendanceFilter
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, appErrors.Clone(appErrors.ErrValidation, "student_id must be a positive integer")
		}
		filter.StudentID = &id
	}
	filter.ClassName = strings.TrimSpace(c.Query("class_name"))

	from, err := queryDate(c, "from_date")
	if err != nil {
		return filter, err
	}
	to, err := queryDate(c, "to_date")
	if err != nil {
		return filter, err
	}
	filter.FromDate = from
	filter.ToDate = to
	return filter, nil
}
