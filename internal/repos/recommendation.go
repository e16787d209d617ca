package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightpath/brightpath-backend/internal/logger"
	"github.com/brightpath/brightpath-backend/internal/types"
)

// RecommendationRepo persists ranked recommendations. Upsert is keyed by
// the (student, course, assessment result) triple.
type RecommendationRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rec *types.CourseRecommendation) (*types.CourseRecommendation, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, filter types.SavedRecommendationFilter) ([]*types.CourseRecommendation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CourseRecommendation, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, dismissedAt *time.Time, dismissedReason *string) (*types.CourseRecommendation, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

// Upsert finds-or-creates inside a transaction rather than relying on a
// unique index: assessment_result_id is nullable and NULLs never collide
// in a plain unique index. An existing row keeps its status and dismissal
// fields; only the scoring payload is refreshed.
func (r *recommendationRepo) Upsert(ctx context.Context, tx *gorm.DB, rec *types.CourseRecommendation) (*types.CourseRecommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var saved *types.CourseRecommendation
	err := transaction.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		q := txn.Where("student_id = ?", rec.StudentID).
			Where("course_id = ?", rec.CourseID)
		if rec.AssessmentResultID == nil {
			q = q.Where("assessment_result_id IS NULL")
		} else {
			q = q.Where("assessment_result_id = ?", *rec.AssessmentResultID)
		}

		var existing types.CourseRecommendation
		findErr := q.First(&existing).Error
		if findErr == nil {
			updates := map[string]interface{}{
				"relevance_score":      rec.RelevanceScore,
				"match_reasons":        rec.MatchReasons,
				"skill_gaps_addressed": rec.SkillGapsAddressed,
				"recommendation_type":  rec.RecommendationType,
				"recommended_at":       rec.RecommendedAt,
			}
			if err := txn.Model(&existing).Updates(updates).Error; err != nil {
				return err
			}
			existing.RelevanceScore = rec.RelevanceScore
			existing.MatchReasons = rec.MatchReasons
			existing.SkillGapsAddressed = rec.SkillGapsAddressed
			existing.RecommendationType = rec.RecommendationType
			existing.RecommendedAt = rec.RecommendedAt
			saved = &existing
			return nil
		}
		if findErr != gorm.ErrRecordNotFound {
			return findErr
		}

		if rec.Status == "" {
			rec.Status = types.RecommendationStatusActive
		}
		if rec.MatchReasons == nil {
			rec.MatchReasons = datatypes.JSONSlice[string]{}
		}
		if rec.SkillGapsAddressed == nil {
			rec.SkillGapsAddressed = datatypes.JSONSlice[string]{}
		}
		if err := txn.Create(rec).Error; err != nil {
			return err
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *recommendationRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, filter types.SavedRecommendationFilter) ([]*types.CourseRecommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CourseRecommendation
	q := transaction.WithContext(ctx).Where("student_id = ?", studentID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AssessmentResultID != nil {
		q = q.Where("assessment_result_id = ?", *filter.AssessmentResultID)
	}
	if err := q.Order("relevance_score DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recommendationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CourseRecommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rec types.CourseRecommendation
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recommendationRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, dismissedAt *time.Time, dismissedReason *string) (*types.CourseRecommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rec types.CourseRecommendation
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"status": status}
	if dismissedAt != nil {
		updates["dismissed_at"] = *dismissedAt
	}
	if dismissedReason != nil {
		updates["dismissed_reason"] = *dismissedReason
	}
	if err := transaction.WithContext(ctx).Model(&rec).Updates(updates).Error; err != nil {
		return nil, err
	}
	rec.Status = status
	if dismissedAt != nil {
		rec.DismissedAt = dismissedAt
	}
	if dismissedReason != nil {
		rec.DismissedReason = dismissedReason
	}
	return &rec, nil
}
