package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath/brightpath-backend/internal/logger"
	"github.com/brightpath/brightpath-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = s.vec
	}
	return out, nil
}

type stubCourseRepo struct {
	corpus       []*types.CorpusCourse
	corpusByType map[string][]*types.CorpusCourse
	corpusErr    error
	active       []*types.CorpusCourse
	activeErr    error
	tags         []*types.CourseSkill
	tagsErr      error
}

func (s *stubCourseRepo) GetCorpus(ctx context.Context, tx *gorm.DB, skillType string) ([]*types.CorpusCourse, error) {
	if s.corpusErr != nil {
		return nil, s.corpusErr
	}
	if skillType != "" && s.corpusByType != nil {
		return s.corpusByType[skillType], nil
	}
	return s.corpus, nil
}

func (s *stubCourseRepo) GetCorpusByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CorpusCourse, error) {
	if s.corpusErr != nil {
		return nil, s.corpusErr
	}
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []*types.CorpusCourse{}
	for _, c := range s.corpus {
		if want[c.Course.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCourseRepo) GetActive(ctx context.Context, tx *gorm.DB, limit int) ([]*types.CorpusCourse, error) {
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	courses := s.active
	if courses == nil {
		courses = s.corpus
	}
	if limit > 0 && len(courses) > limit {
		courses = courses[:limit]
	}
	return courses, nil
}

func (s *stubCourseRepo) SearchSkillTags(ctx context.Context, tx *gorm.DB, fragment string) ([]*types.CourseSkill, error) {
	if s.tagsErr != nil {
		return nil, s.tagsErr
	}
	out := []*types.CourseSkill{}
	for _, tag := range s.tags {
		if textMatches(tag.SkillTag, fragment) {
			out = append(out, tag)
		}
	}
	return out, nil
}

type stubRecommendationRepo struct {
	upserted  []*types.CourseRecommendation
	upsertErr error
	stored    []*types.CourseRecommendation
	storedErr error
	updated   *types.CourseRecommendation
	updateErr error
}

func (s *stubRecommendationRepo) Upsert(ctx context.Context, tx *gorm.DB, rec *types.CourseRecommendation) (*types.CourseRecommendation, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.upserted = append(s.upserted, rec)
	return rec, nil
}

func (s *stubRecommendationRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, filter types.SavedRecommendationFilter) ([]*types.CourseRecommendation, error) {
	if s.storedErr != nil {
		return nil, s.storedErr
	}
	return s.stored, nil
}

func (s *stubRecommendationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CourseRecommendation, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.updated, nil
}

func (s *stubRecommendationRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, dismissedAt *time.Time, dismissedReason *string) (*types.CourseRecommendation, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.updated, nil
}

func makeCorpusCourse(title, description string, vec []float32, skills ...string) *types.CorpusCourse {
	return &types.CorpusCourse{
		Course: &types.Course{
			ID:          uuid.New(),
			Title:       title,
			Description: description,
			SkillType:   types.SkillTypeTechnical,
			Status:      types.CourseStatusActive,
		},
		Skills: skills,
		Vector: vec,
	}
}
