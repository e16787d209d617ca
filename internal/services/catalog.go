package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/brightpath/brightpath-backend/internal/logger"
	"github.com/brightpath/brightpath-backend/internal/repos"
	"github.com/brightpath/brightpath-backend/internal/types"
)

// CourseCatalogService exposes the eligible-course corpus as plain
// metadata listings, without embeddings.
type CourseCatalogService interface {
	ListActiveCourses(ctx context.Context) ([]types.CourseListing, error)
}

type courseCatalogService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
}

func NewCourseCatalogService(db *gorm.DB, baseLog *logger.Logger, courseRepo repos.CourseRepo) CourseCatalogService {
	return &courseCatalogService{
		db:         db,
		log:        baseLog.With("service", "CourseCatalogService"),
		courseRepo: courseRepo,
	}
}

func (s *courseCatalogService) ListActiveCourses(ctx context.Context) ([]types.CourseListing, error) {
	corpus, err := s.courseRepo.GetCorpus(ctx, nil, "")
	if err != nil {
		s.log.Error("ListActiveCourses failed", "error", err)
		return nil, fmt.Errorf("load course catalog: %w", err)
	}
	out := make([]types.CourseListing, 0, len(corpus))
	for _, c := range corpus {
		skills := c.Skills
		if skills == nil {
			skills = []string{}
		}
		out = append(out, types.CourseListing{
			ID:             c.Course.ID,
			Title:          c.Course.Title,
			Code:           c.Course.Code,
			Description:    c.Course.Description,
			Duration:       c.Course.Duration,
			Category:       c.Course.Category,
			SkillType:      c.Course.SkillType,
			TargetOutcomes: []string(c.Course.TargetOutcomes),
			Skills:         skills,
		})
	}
	return out, nil
}
