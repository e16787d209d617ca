package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/brightpath/brightpath-backend/internal/apierr"
	"github.com/brightpath/brightpath-backend/internal/config"
	"github.com/brightpath/brightpath-backend/internal/types"
)

func newTestRecommendationService(t *testing.T, embedder Embedder, courseRepo *stubCourseRepo, recRepo *stubRecommendationRepo) RecommendationService {
	t.Helper()
	if recRepo == nil {
		recRepo = &stubRecommendationRepo{}
	}
	return NewRecommendationService(nil, testLogger(t), config.Default(), embedder, courseRepo, recRepo)
}

func analystProfile() *types.AssessmentProfile {
	return &types.AssessmentProfile{
		SkillGap: types.SkillGapSummary{
			PriorityA: []types.SkillGapEntry{{Skill: "Python"}},
		},
		CareerFit: types.CareerFit{
			Clusters: []types.CareerCluster{
				{Title: "Data Analyst", Domains: []string{"analytics"}},
			},
		},
	}
}

// Cosine 0.9 against query [1, 0].
func vecWithSimilarity(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func TestGetRecommendedCoursesScenarioA(t *testing.T) {
	course := makeCorpusCourse("Python Fundamentals", "Learn Python for analytics work", vecWithSimilarity(0.9), "Python")
	svc := newTestRecommendationService(t,
		&stubEmbedder{vec: []float32{1, 0}},
		&stubCourseRepo{corpus: []*types.CorpusCourse{course}},
		nil,
	)

	recs := svc.GetRecommendedCourses(context.Background(), analystProfile())
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	rec := recs[0]
	if rec.RelevanceScore != 95 {
		t.Fatalf("relevanceScore=%d, want 95", rec.RelevanceScore)
	}
	foundPythonReason := false
	for _, r := range rec.MatchReasons {
		if r == "Builds your priority skill: Python" {
			foundPythonReason = true
		}
	}
	if !foundPythonReason {
		t.Fatalf("missing Python priority-skill reason, got %v", rec.MatchReasons)
	}
	if len(rec.SkillGapsAddressed) != 1 || rec.SkillGapsAddressed[0] != "Python" {
		t.Fatalf("skillGapsAddressed=%v, want [Python]", rec.SkillGapsAddressed)
	}
}

func TestGetRecommendedCoursesThreshold(t *testing.T) {
	below := makeCorpusCourse("Barely Related", "nothing in common", vecWithSimilarity(0.2), "Knitting")
	above := makeCorpusCourse("Quite Related", "python content", vecWithSimilarity(0.5), "Python")
	svc := newTestRecommendationService(t,
		&stubEmbedder{vec: []float32{1, 0}},
		&stubCourseRepo{corpus: []*types.CorpusCourse{below, above}},
		nil,
	)

	recs := svc.GetRecommendedCourses(context.Background(), analystProfile())
	if len(recs) != 1 {
		t.Fatalf("expected only the above-threshold course, got %d", len(recs))
	}
	if recs[0].CourseID != above.Course.ID {
		t.Fatalf("wrong course survived the threshold")
	}
}

func TestGetRecommendedCoursesTopN(t *testing.T) {
	corpus := make([]*types.CorpusCourse, 0, 14)
	for i := 0; i < 14; i++ {
		corpus = append(corpus, makeCorpusCourse(fmt.Sprintf("Course %02d", i), "python", vecWithSimilarity(0.5+float64(i)*0.02), "Python"))
	}
	svc := newTestRecommendationService(t,
		&stubEmbedder{vec: []float32{1, 0}},
		&stubCourseRepo{corpus: corpus},
		nil,
	)

	recs := svc.GetRecommendedCourses(context.Background(), analystProfile())
	if len(recs) != 10 {
		t.Fatalf("expected top-10 cap, got %d", len(recs))
	}
	// Descending by raw similarity: the highest-similarity course leads.
	if recs[0].Title != "Course 13" {
		t.Fatalf("expected Course 13 first, got %s", recs[0].Title)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].RelevanceScore > recs[i-1].RelevanceScore {
			t.Fatalf("relevance not descending at %d: %d > %d", i, recs[i].RelevanceScore, recs[i-1].RelevanceScore)
		}
	}
}

func TestGetRecommendedCoursesSkipsCoursesWithoutEmbedding(t *testing.T) {
	noVec := makeCorpusCourse("No Embedding Yet", "python everywhere", nil, "Python")
	withVec := makeCorpusCourse("Embedded", "python", vecWithSimilarity(0.8), "Python")
	svc := newTestRecommendationService(t,
		&stubEmbedder{vec: []float32{1, 0}},
		&stubCourseRepo{corpus: []*types.CorpusCourse{noVec, withVec}},
		nil,
	)

	recs := svc.GetRecommendedCourses(context.Background(), analystProfile())
	if len(recs) != 1 || recs[0].CourseID != withVec.Course.ID {
		t.Fatalf("expected only the embedded course, got %d", len(recs))
	}
}

func TestGetRecommendedCoursesScenarioBKeywordFallback(t *testing.T) {
	course := makeCorpusCourse("Python for Data Analysts", "hands-on analysis", nil)
	profile := &types.AssessmentProfile{
		SkillGap: types.SkillGapSummary{
			PriorityA: []types.SkillGapEntry{{Skill: "Python"}},
		},
	}
	svc := newTestRecommendationService(t,
		&stubEmbedder{err: errors.New("embedding service down")},
		&stubCourseRepo{corpus: []*types.CorpusCourse{course}},
		nil,
	)

	recs := svc.GetRecommendedCourses(context.Background(), profile)
	if len(recs) != 1 {
		t.Fatalf("expected 1 fallback recommendation, got %d", len(recs))
	}
	if recs[0].RelevanceScore != 100 {
		t.Fatalf("relevanceScore=%d, want 100 for 1/1 keywords", recs[0].RelevanceScore)
	}
	if len(recs[0].MatchReasons) != 1 || recs[0].MatchReasons[0] != "Matched by keywords" {
		t.Fatalf("matchReasons=%v, want [Matched by keywords]", recs[0].MatchReasons)
	}
}

func TestGetRecommendedCoursesFallbackScoring(t *testing.T) {
	both := makeCorpusCourse("Python and SQL Bootcamp", "covers python and sql", nil)
	one := makeCorpusCourse("Pure Python", "python only", nil)
	none := makeCorpusCourse("Pottery", "clay and kilns", nil)
	profile := &types.AssessmentProfile{
		SkillGap: types.SkillGapSummary{
			PriorityA: []types.SkillGapEntry{{Skill: "Python"}},
			PriorityB: []types.SkillGapEntry{{Skill: "SQL"}},
		},
	}
	svc := newTestRecommendationService(t,
		&stubEmbedder{err: errors.New("down")},
		&stubCourseRepo{corpus: []*types.CorpusCourse{none, one, both}},
		nil,
	)

	recs := svc.GetRecommendedCourses(context.Background(), profile)
	if len(recs) != 2 {
		t.Fatalf("expected 2 keyword matches, got %d", len(recs))
	}
	if recs[0].CourseID != both.Course.ID {
		t.Fatalf("expected the two-keyword course ranked first")
	}
	if recs[0].RelevanceScore != 100 || recs[1].RelevanceScore != 50 {
		t.Fatalf("scores=%d,%d, want 100,50", recs[0].RelevanceScore, recs[1].RelevanceScore)
	}
}

func TestGetRecommendedCoursesNeverRaises(t *testing.T) {
	cases := []struct {
		name       string
		embedder   Embedder
		courseRepo *stubCourseRepo
	}{
		{
			name:       "embedder_and_corpus_both_fail",
			embedder:   &stubEmbedder{err: errors.New("down")},
			courseRepo: &stubCourseRepo{corpusErr: errors.New("db down"), activeErr: errors.New("db down")},
		},
		{
			name:       "corpus_fails",
			embedder:   &stubEmbedder{vec: []float32{1, 0}},
			courseRepo: &stubCourseRepo{corpusErr: errors.New("db down")},
		},
		{
			name:       "no_embedder_configured",
			embedder:   nil,
			courseRepo: &stubCourseRepo{activeErr: errors.New("db down")},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestRecommendationService(t, tc.embedder, tc.courseRepo, nil)
			recs := svc.GetRecommendedCourses(context.Background(), analystProfile())
			if recs == nil {
				t.Fatal("expected empty slice, got nil")
			}
			if len(recs) != 0 {
				t.Fatalf("expected no recommendations, got %d", len(recs))
			}
		})
	}
}

func TestGetRecommendedCoursesByType(t *testing.T) {
	tech := makeCorpusCourse("SQL Deep Dive", "sql", vecWithSimilarity(0.8), "SQL")
	soft := makeCorpusCourse("Public Speaking", "communication", vecWithSimilarity(0.7), "Communication")
	soft.Course.SkillType = types.SkillTypeSoft
	repo := &stubCourseRepo{
		corpusByType: map[string][]*types.CorpusCourse{
			types.SkillTypeTechnical: {tech},
			types.SkillTypeSoft:      {soft},
		},
	}
	svc := newTestRecommendationService(t, &stubEmbedder{vec: []float32{1, 0}}, repo, nil)

	typed := svc.GetRecommendedCoursesByType(context.Background(), analystProfile(), 5)
	if len(typed.Technical) != 1 || typed.Technical[0].CourseID != tech.Course.ID {
		t.Fatalf("technical=%v", typed.Technical)
	}
	if len(typed.Soft) != 1 || typed.Soft[0].CourseID != soft.Course.ID {
		t.Fatalf("soft=%v", typed.Soft)
	}
}

func TestSaveRecommendationsDefaultsType(t *testing.T) {
	recRepo := &stubRecommendationRepo{}
	svc := newTestRecommendationService(t, nil, &stubCourseRepo{}, recRepo)
	course := makeCorpusCourse("Python Fundamentals", "python", nil, "Python")

	rec := types.RecommendedCourse{CourseID: course.Course.ID, RelevanceScore: 80, MatchReasons: []string{"r"}, SkillGapsAddressed: []string{"Python"}}
	saved, err := svc.SaveRecommendations(context.Background(), course.Course.ID, []types.RecommendedCourse{rec}, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved row, got %d", len(saved))
	}
	if saved[0].RecommendationType != types.RecommendationTypeAssessment {
		t.Fatalf("type=%s, want assessment", saved[0].RecommendationType)
	}
	if saved[0].Status != types.RecommendationStatusActive {
		t.Fatalf("status=%s, want active", saved[0].Status)
	}
}

func TestSaveRecommendationsPropagatesStoreFailure(t *testing.T) {
	recRepo := &stubRecommendationRepo{upsertErr: errors.New("disk full")}
	svc := newTestRecommendationService(t, nil, &stubCourseRepo{}, recRepo)

	rec := types.RecommendedCourse{RelevanceScore: 80}
	if _, err := svc.SaveRecommendations(context.Background(), rec.CourseID, []types.RecommendedCourse{rec}, nil, ""); err == nil {
		t.Fatal("expected persistence error to propagate")
	}
}

func TestUpdateRecommendationStatusValidation(t *testing.T) {
	recRepo := &stubRecommendationRepo{updated: &types.CourseRecommendation{Status: types.RecommendationStatusEnrolled}}
	svc := newTestRecommendationService(t, nil, &stubCourseRepo{}, recRepo)

	_, err := svc.UpdateRecommendationStatus(context.Background(), uuid.New(), "archived", nil)
	if err == nil {
		t.Fatal("expected invalid status error")
	}
	if !apierr.HasCode(err, apierr.CodeInvalidStatus) {
		t.Fatalf("expected code %s, got %v", apierr.CodeInvalidStatus, err)
	}

	rec, err := svc.UpdateRecommendationStatus(context.Background(), uuid.New(), types.RecommendationStatusEnrolled, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != types.RecommendationStatusEnrolled {
		t.Fatalf("status=%s, want enrolled", rec.Status)
	}
}
