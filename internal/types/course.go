package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CourseStatusActive   = "active"
	CourseStatusInactive = "inactive"

	SkillTypeTechnical = "technical"
	SkillTypeSoft      = "soft"
)

type Course struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string                      `gorm:"column:title;not null" json:"title"`
	Code           string                      `gorm:"column:code;index" json:"code"`
	Description    string                      `gorm:"column:description" json:"description"`
	Duration       string                      `gorm:"column:duration" json:"duration"`
	Category       string                      `gorm:"column:category;index" json:"category"`
	SkillType      string                      `gorm:"column:skill_type;index" json:"skillType"`
	TargetOutcomes datatypes.JSONSlice[string] `gorm:"column:target_outcomes" json:"targetOutcomes"`
	Status         string                      `gorm:"column:status;not null;default:active;index" json:"status"`
	// Raw embedding as persisted by the ingestion side. Either a JSON
	// array ("[0.1,0.2]") or bare comma-separated floats ("0.1,0.2").
	Embedding string         `gorm:"column:embedding;type:text" json:"-"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CourseSkill is one tag row in the course/skill relation.
type CourseSkill struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	SkillTag string    `gorm:"column:skill_tag;not null;index" json:"skill_tag"`
}

func (CourseSkill) TableName() string { return "course_skill" }

func (s *CourseSkill) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// CorpusCourse is one eligible course as loaded by the corpus accessor:
// the record, its grouped skill tags, and the parsed embedding. Vector is
// nil when the stored embedding was absent or unparseable; such courses
// stay in the corpus but are skipped by vector scoring.
type CorpusCourse struct {
	Course *Course
	Skills []string
	Vector []float32
}

// CourseListing is the metadata shape returned by the catalog endpoint.
type CourseListing struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Code           string    `json:"code"`
	Description    string    `json:"description"`
	Duration       string    `json:"duration"`
	Category       string    `json:"category"`
	SkillType      string    `json:"skillType"`
	TargetOutcomes []string  `json:"targetOutcomes"`
	Skills         []string  `json:"skills"`
}
