package handlers

import (
	"net/http"
	"time"

	"agendify/models"
	"agendify/services/schedule"
	"agendify/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScheduleHandler serves the professor configuration endpoints and the slot
// resolution endpoint the booking page polls.
type ScheduleHandler struct {
	Service *schedule.Service
}

func NewScheduleHandler(svc *schedule.Service) *ScheduleHandler {
	return &ScheduleHandler{Service: svc}
}

// FindConfigSchedule returns a professor's raw configuration entries.
func (h *ScheduleHandler) FindConfigSchedule(c *gin.Context) {
	var input struct {
		Professor string `json:"professor"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Professor == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "professor is required")
		return
	}

	entries, err := h.Service.GetConfig(c.Request.Context(), input.Professor)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch schedule config", err.Error())
		return
	}
	// The booking page consumes this as a bare entry array.
	c.JSON(http.StatusOK, entries)
}

// AddConfigSchedule replaces a professor's whole configuration.
func (h *ScheduleHandler) AddConfigSchedule(c *gin.Context) {
	var input struct {
		Professor string                       `json:"professor"`
		Config    []models.ScheduleConfigEntry `json:"config"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Professor == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "professor is required")
		return
	}

	if err := h.Service.SaveConfig(c.Request.Context(), input.Professor, input.Config); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to save schedule config", err.Error())
		return
	}

	getLogger(c).Info("schedule config saved",
		zap.String("professor", input.Professor),
		zap.Int("entries", len(input.Config)))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// FindAvailableSlots resolves a professor's configuration against one date
// and returns the bookable hours.
func (h *ScheduleHandler) FindAvailableSlots(c *gin.Context) {
	var input struct {
		Professor string `json:"professor"`
		Date      string `json:"date"` // YYYY-MM-DD
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Professor == "" || input.Date == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "professor and date are required")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", input.Date, time.Local)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "date must be YYYY-MM-DD")
		return
	}

	slots, err := h.Service.AvailableSlots(c.Request.Context(), input.Professor, date, time.Now())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to resolve slots", err.Error())
		return
	}

	hours := make([]string, 0, len(slots))
	for _, s := range slots {
		hours = append(hours, s.Hour())
	}
	c.JSON(http.StatusOK, gin.H{
		"professor": input.Professor,
		"date":      input.Date,
		"slots":     hours,
	})
}
