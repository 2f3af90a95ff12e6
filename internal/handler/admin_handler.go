package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-api/internal/models"
	"github.com/noah-isme/attendance-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context, asOf *models.Date) (*models.DashboardStats, error)
}

type rosterReporter interface {
	WithoutPhoto(ctx context.Context) (*models.StudentsWithoutPhoto, error)
}

type userPromoter interface {
	Promote(ctx context.Context, actorID, targetID int64) (*models.User, error)
}

// AdminHandler serves admin-only reporting and account endpoints.
type AdminHandler struct {
	dashboard dashboardService
	roster    rosterReporter
	users     userPromoter
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(dashboard dashboardService, roster rosterReporter, users userPromoter) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, roster: roster, users: users}
}

// Dashboard godoc
// @Summary Dashboard statistics
// @Description Roster size, the day's marks, the trailing seven days and class distribution.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param date query string false "As-of date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	asOf, err := queryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.dashboard.Stats(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// StudentsWithoutPhoto godoc
// @Summary Students without photo
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/students/without-photo [get]
func (h *AdminHandler) StudentsWithoutPhoto(c *gin.Context) {
	result, err := h.roster.WithoutPhoto(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// PromoteUser godoc
// @Summary Grant admin
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/promote [post]
func (h *AdminHandler) PromoteUser(c *gin.Context) {
	actorID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	targetID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	user, err := h.users.Promote(c.Request.Context(), actorID, targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user.Info())
}
