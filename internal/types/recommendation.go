package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RecommendationStatusActive    = "active"
	RecommendationStatusEnrolled  = "enrolled"
	RecommendationStatusDismissed = "dismissed"
	RecommendationStatusCompleted = "completed"

	RecommendationTypeAssessment = "assessment"
	RecommendationTypeSkillGap   = "skill_gap"
	RecommendationTypeCareerPath = "career_path"
	RecommendationTypeManual     = "manual"
)

func ValidRecommendationStatus(s string) bool {
	switch s {
	case RecommendationStatusActive, RecommendationStatusEnrolled,
		RecommendationStatusDismissed, RecommendationStatusCompleted:
		return true
	}
	return false
}

// CourseRecommendation is the persisted recommendation row. One row per
// (student, course, assessment result) triple; re-saving the same triple
// updates in place.
type CourseRecommendation struct {
	ID                 uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID          uuid.UUID                   `gorm:"type:uuid;not null;index:idx_rec_triple" json:"student_id"`
	CourseID           uuid.UUID                   `gorm:"type:uuid;not null;index:idx_rec_triple" json:"course_id"`
	AssessmentResultID *uuid.UUID                  `gorm:"type:uuid;index:idx_rec_triple" json:"assessment_result_id,omitempty"`
	RelevanceScore     int                         `gorm:"column:relevance_score;not null" json:"relevance_score"`
	MatchReasons       datatypes.JSONSlice[string] `gorm:"column:match_reasons" json:"match_reasons"`
	SkillGapsAddressed datatypes.JSONSlice[string] `gorm:"column:skill_gaps_addressed" json:"skill_gaps_addressed"`
	RecommendationType string                      `gorm:"column:recommendation_type;not null;default:assessment" json:"recommendation_type"`
	Status             string                      `gorm:"column:status;not null;default:active;index" json:"status"`
	RecommendedAt      time.Time                   `gorm:"column:recommended_at;not null" json:"recommended_at"`
	DismissedAt        *time.Time                  `gorm:"column:dismissed_at" json:"dismissed_at,omitempty"`
	DismissedReason    *string                     `gorm:"column:dismissed_reason" json:"dismissed_reason,omitempty"`
	CreatedAt          time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time                   `gorm:"not null" json:"updated_at"`
}

func (CourseRecommendation) TableName() string { return "course_recommendation" }

func (r *CourseRecommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecommendedCourse is the transient ranking result. Built fresh on every
// ranking call and never mutated afterwards.
type RecommendedCourse struct {
	CourseID           uuid.UUID `json:"courseId"`
	Title              string    `json:"title"`
	Code               string    `json:"code"`
	Description        string    `json:"description"`
	Duration           string    `json:"duration"`
	Category           string    `json:"category"`
	SkillType          string    `json:"skillType"`
	TargetOutcomes     []string  `json:"targetOutcomes"`
	Skills             []string  `json:"skills"`
	RelevanceScore     int       `json:"relevanceScore"`
	MatchReasons       []string  `json:"matchReasons"`
	SkillGapsAddressed []string  `json:"skillGapsAddressed"`
}

const (
	MatchTypeDirect   = "direct"
	MatchTypeSemantic = "semantic"
)

// SkillGapCourseMatch is a per-skill-gap hybrid match. MatchStrength is the
// raw path score before normalization.
type SkillGapCourseMatch struct {
	RecommendedCourse
	MatchType         string  `json:"matchType"`
	MatchStrength     float64 `json:"matchStrength"`
	WhyThisCourse     string  `json:"whyThisCourse"`
	SkillGapAddressed string  `json:"skillGapAddressed"`
}

type TypedRecommendations struct {
	Technical []RecommendedCourse `json:"technical"`
	Soft      []RecommendedCourse `json:"soft"`
}

// SavedRecommendationFilter narrows persisted-recommendation reads.
type SavedRecommendationFilter struct {
	Status             string
	AssessmentResultID *uuid.UUID
}
