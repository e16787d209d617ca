package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brightpath/brightpath-backend/internal/logger"
	"github.com/brightpath/brightpath-backend/internal/services"
	"github.com/brightpath/brightpath-backend/internal/types"
)

type RecommendationHandler struct {
	log         *logger.Logger
	recSvc      services.RecommendationService
	skillGapSvc services.SkillGapService
}

func NewRecommendationHandler(log *logger.Logger, recSvc services.RecommendationService, skillGapSvc services.SkillGapService) *RecommendationHandler {
	return &RecommendationHandler{
		log:         log.With("handler", "RecommendationHandler"),
		recSvc:      recSvc,
		skillGapSvc: skillGapSvc,
	}
}

type generateRecommendationsRequest struct {
	Profile            types.AssessmentProfile `json:"profile"`
	AssessmentResultID *uuid.UUID              `json:"assessmentResultId,omitempty"`
	Persist            bool                    `json:"persist"`
}

// POST /api/students/:studentId/recommendations
func (h *RecommendationHandler) GenerateRecommendations(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	var req generateRecommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	recs := h.recSvc.GetRecommendedCourses(c.Request.Context(), &req.Profile)

	if req.Persist && len(recs) > 0 {
		if _, err := h.recSvc.SaveRecommendations(c.Request.Context(), studentID, recs, req.AssessmentResultID, types.RecommendationTypeAssessment); err != nil {
			h.log.Error("Persisting generated recommendations failed", "error", err, "student_id", studentID)
			RespondError(c, http.StatusInternalServerError, "save_recommendations_failed", err)
			return
		}
	}
	RespondOK(c, gin.H{"recommendations": recs})
}

// POST /api/students/:studentId/recommendations/by-type
func (h *RecommendationHandler) GenerateRecommendationsByType(c *gin.Context) {
	if _, err := uuid.Parse(c.Param("studentId")); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	var req generateRecommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	typed := h.recSvc.GetRecommendedCoursesByType(c.Request.Context(), &req.Profile, 0)
	RespondOK(c, typed)
}

// GET /api/students/:studentId/recommendations
func (h *RecommendationHandler) ListSavedRecommendations(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	filter := types.SavedRecommendationFilter{}
	if status := c.Query("status"); status != "" {
		if !types.ValidRecommendationStatus(status) {
			RespondError(c, http.StatusBadRequest, "invalid_status", fmt.Errorf("unknown recommendation status %q", status))
			return
		}
		filter.Status = status
	}
	if raw := c.Query("assessmentResultId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_assessment_result_id", err)
			return
		}
		filter.AssessmentResultID = &id
	}

	recs, err := h.recSvc.GetSavedRecommendations(c.Request.Context(), studentID, filter)
	if err != nil {
		h.log.Error("ListSavedRecommendations failed", "error", err, "student_id", studentID)
		RespondError(c, http.StatusInternalServerError, "load_recommendations_failed", err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs})
}

type updateStatusRequest struct {
	Status          string  `json:"status"`
	DismissedReason *string `json:"dismissedReason,omitempty"`
}

// PATCH /api/recommendations/:id/status
func (h *RecommendationHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_recommendation_id", err)
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.recSvc.UpdateRecommendationStatus(c.Request.Context(), id, req.Status, req.DismissedReason)
	if err != nil {
		RespondServiceError(c, "update_status_failed", err)
		return
	}
	RespondOK(c, gin.H{"recommendation": rec})
}

type matchSkillGapsRequest struct {
	SkillGaps []types.SkillGapEntry `json:"skillGaps"`
}

// POST /api/skill-gaps/matches
func (h *RecommendationHandler) MatchSkillGaps(c *gin.Context) {
	var req matchSkillGapsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(req.SkillGaps) == 0 {
		RespondError(c, http.StatusBadRequest, "no_skill_gaps", fmt.Errorf("skillGaps must not be empty"))
		return
	}
	matches := h.skillGapSvc.GetCoursesForMultipleSkillGaps(c.Request.Context(), req.SkillGaps)
	RespondOK(c, gin.H{"matches": matches})
}
