package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/brightpath-backend/internal/logger"
	"github.com/brightpath/brightpath-backend/internal/services"
)

type CourseHandler struct {
	log        *logger.Logger
	catalogSvc services.CourseCatalogService
}

func NewCourseHandler(log *logger.Logger, catalogSvc services.CourseCatalogService) *CourseHandler {
	return &CourseHandler{
		log:        log.With("handler", "CourseHandler"),
		catalogSvc: catalogSvc,
	}
}

// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalogSvc.ListActiveCourses(c.Request.Context())
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_courses_failed", err)
		return
	}
	RespondOK(c, gin.H{"courses": courses})
}
