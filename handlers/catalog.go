package handlers

import (
	"net/http"

	catalogRepo "agendify/database/repository/catalog"
	"agendify/models"
	"agendify/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the read-only storefront catalog.
type CatalogHandler struct {
	Repo catalogRepo.CatalogRepository
}

func NewCatalogHandler(repo catalogRepo.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{Repo: repo}
}

func (h *CatalogHandler) ListProfessors(c *gin.Context) {
	professors, err := h.Repo.ListProfessors(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch professors", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"professors": professors})
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.Repo.ListProducts(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch products", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *CatalogHandler) ListPackages(c *gin.Context) {
	packages, err := h.Repo.ListPackages(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch packages", err.Error())
		return
	}
	if packages == nil {
		packages = []models.Package{}
	}
	// The storefront maps over this directly, so it gets the bare list.
	c.JSON(http.StatusOK, packages)
}
