package handlers

import (
	"net/http"

	agendaRepo "agendify/database/repository/agenda"
	catalogRepo "agendify/database/repository/catalog"
	"agendify/models"
	"agendify/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AgendaHandler serves the booked-lessons endpoints.
type AgendaHandler struct {
	Repo    agendaRepo.AgendaRepository
	Catalog catalogRepo.CatalogRepository
}

func NewAgendaHandler(repo agendaRepo.AgendaRepository, catalog catalogRepo.CatalogRepository) *AgendaHandler {
	return &AgendaHandler{Repo: repo, Catalog: catalog}
}

// AddAgenda records a lesson directly, without a payment. Used by the admin
// panel for manual bookings.
func (h *AgendaHandler) AddAgenda(c *gin.Context) {
	var input struct {
		Name      string `json:"name"`
		Professor string `json:"professor"`
		Date      string `json:"date"`
		Hour      string `json:"hour"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Name == "" || input.Professor == "" || input.Date == "" || input.Hour == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "name, professor, date and hour are required")
		return
	}

	prof, err := h.Catalog.GetProfessorByName(c.Request.Context(), input.Professor)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to look up professor", err.Error())
		return
	}
	if prof == nil {
		utils.JSONError(c, http.StatusNotFound, "unknown professor", input.Professor)
		return
	}

	entry := models.AgendaEntry{
		Name:      input.Name,
		Professor: input.Professor,
		Date:      input.Date,
		Hour:      input.Hour,
	}
	id, err := h.Repo.Create(c.Request.Context(), entry)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to record booking", err.Error())
		return
	}

	getLogger(c).Info("lesson booked",
		zap.String("professor", input.Professor),
		zap.String("date", input.Date),
		zap.String("hour", input.Hour))
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// FindAgenda lists a professor's bookings, optionally narrowed to one date.
func (h *AgendaHandler) FindAgenda(c *gin.Context) {
	var input struct {
		Professor string `json:"professor"`
		Date      string `json:"date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Professor == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "professor is required")
		return
	}

	var (
		entries []models.AgendaEntry
		err     error
	)
	if input.Date != "" {
		entries, err = h.Repo.GetByProfessorAndDate(c.Request.Context(), input.Professor, input.Date)
	} else {
		entries, err = h.Repo.GetByProfessor(c.Request.Context(), input.Professor)
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch agenda", err.Error())
		return
	}
	if entries == nil {
		entries = []models.AgendaEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"agenda": entries})
}
