package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusdesk/course-planner-api/internal/models"
	"github.com/campusdesk/course-planner-api/internal/service"
	"github.com/campusdesk/course-planner-api/pkg/response"
)

// CatalogHandler handles catalog read endpoints.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListTerms godoc
// @Summary List academic terms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /terms [get]
func (h *CatalogHandler) ListTerms(c *gin.Context) {
	terms, err := h.service.ListTerms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, nil)
}

// GetMajor godoc
// @Summary Get a major and its requirement groups
// @Tags Catalog
// @Produce json
// @Param id path string true "Major ID"
// @Success 200 {object} response.Envelope
// @Router /majors/{id} [get]
func (h *CatalogHandler) GetMajor(c *gin.Context) {
	major, err := h.service.GetMajor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, major, nil)
}

// ListCourses godoc
// @Summary List catalog courses
// @Tags Catalog
// @Produce json
// @Param search query string false "Search keyword"
// @Param tag query string false "Filter by tag"
// @Param minLevel query int false "Minimum course level"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	var filter models.CourseFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Tag = c.Query("tag")
	if minLevel, err := strconv.Atoi(c.DefaultQuery("minLevel", "0")); err == nil {
		filter.MinLevel = minLevel
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	courses, pagination, err := h.service.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// ListSections godoc
// @Summary List offered sections for a course
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Param termId query string false "Scope to term"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/sections [get]
func (h *CatalogHandler) ListSections(c *gin.Context) {
	sections, err := h.service.ListSections(c.Request.Context(), c.Param("id"), c.Query("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}
