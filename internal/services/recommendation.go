package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightpath/brightpath-backend/internal/apierr"
	"github.com/brightpath/brightpath-backend/internal/config"
	"github.com/brightpath/brightpath-backend/internal/logger"
	"github.com/brightpath/brightpath-backend/internal/repos"
	"github.com/brightpath/brightpath-backend/internal/types"
)

// Embedder is the slice of the embedding client the recommendation engine
// needs. A nil Embedder means the engine runs keyword-fallback only.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type RecommendationService interface {
	// GetRecommendedCourses ranks the whole corpus against the profile.
	// It never returns an error: embedding failure degrades to keyword
	// matching and corpus failure degrades to an empty list.
	GetRecommendedCourses(ctx context.Context, profile *types.AssessmentProfile) []types.RecommendedCourse
	// GetRecommendedCoursesByType ranks technical and soft courses
	// separately. maxPerType <= 0 uses the configured default.
	GetRecommendedCoursesByType(ctx context.Context, profile *types.AssessmentProfile, maxPerType int) *types.TypedRecommendations
	SaveRecommendations(ctx context.Context, studentID uuid.UUID, recs []types.RecommendedCourse, assessmentResultID *uuid.UUID, recType string) ([]*types.CourseRecommendation, error)
	GetSavedRecommendations(ctx context.Context, studentID uuid.UUID, filter types.SavedRecommendationFilter) ([]*types.CourseRecommendation, error)
	UpdateRecommendationStatus(ctx context.Context, id uuid.UUID, status string, dismissedReason *string) (*types.CourseRecommendation, error)
}

type recommendationService struct {
	db         *gorm.DB
	log        *logger.Logger
	cfg        config.Recommender
	embedder   Embedder
	courseRepo repos.CourseRepo
	recRepo    repos.RecommendationRepo
}

func NewRecommendationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg config.Recommender,
	embedder Embedder,
	courseRepo repos.CourseRepo,
	recRepo repos.RecommendationRepo,
) RecommendationService {
	return &recommendationService{
		db:         db,
		log:        baseLog.With("service", "RecommendationService"),
		cfg:        cfg,
		embedder:   embedder,
		courseRepo: courseRepo,
		recRepo:    recRepo,
	}
}

func (s *recommendationService) GetRecommendedCourses(ctx context.Context, profile *types.AssessmentProfile) []types.RecommendedCourse {
	text, err := BuildProfileText(profile)
	if err != nil {
		s.log.Warn("Profile unusable for recommendations", "path", "profile_text", "error", err)
		return []types.RecommendedCourse{}
	}

	query, ok := s.embedProfile(ctx, text)
	if !ok {
		return s.keywordFallback(ctx, profile)
	}

	corpus, err := s.courseRepo.GetCorpus(ctx, nil, "")
	if err != nil {
		s.log.Error("Corpus fetch failed, returning no recommendations", "path", "corpus_fetch", "error", err)
		return []types.RecommendedCourse{}
	}

	return s.rankCorpus(profile, query, corpus, s.cfg.TopN)
}

func (s *recommendationService) GetRecommendedCoursesByType(ctx context.Context, profile *types.AssessmentProfile, maxPerType int) *types.TypedRecommendations {
	if maxPerType <= 0 {
		maxPerType = s.cfg.MaxPerType
	}
	out := &types.TypedRecommendations{
		Technical: []types.RecommendedCourse{},
		Soft:      []types.RecommendedCourse{},
	}

	text, err := BuildProfileText(profile)
	if err != nil {
		s.log.Warn("Profile unusable for typed recommendations", "path", "profile_text", "error", err)
		return out
	}

	query, ok := s.embedProfile(ctx, text)
	if !ok {
		// Degrade once and partition the keyword matches by skill type.
		for _, rec := range s.keywordFallback(ctx, profile) {
			switch rec.SkillType {
			case types.SkillTypeSoft:
				if len(out.Soft) < maxPerType {
					out.Soft = append(out.Soft, rec)
				}
			default:
				if len(out.Technical) < maxPerType {
					out.Technical = append(out.Technical, rec)
				}
			}
		}
		return out
	}

	// The two per-type fetches have no data dependency; run them together.
	var technical, soft []*types.CorpusCourse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		technical, err = s.courseRepo.GetCorpus(gctx, nil, types.SkillTypeTechnical)
		return err
	})
	g.Go(func() error {
		var err error
		soft, err = s.courseRepo.GetCorpus(gctx, nil, types.SkillTypeSoft)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("Typed corpus fetch failed, returning no recommendations", "path", "corpus_fetch", "error", err)
		return out
	}

	out.Technical = s.rankCorpus(profile, query, technical, maxPerType)
	out.Soft = s.rankCorpus(profile, query, soft, maxPerType)
	return out
}

// embedProfile returns the profile query vector, or ok=false when the
// collaborator is unavailable. Failures are not retried here; the single
// failure switches the caller onto the fallback path.
func (s *recommendationService) embedProfile(ctx context.Context, text string) ([]float32, bool) {
	if s.embedder == nil {
		s.log.Warn("No embedding client configured, using keyword fallback", "path", "embedding_unavailable")
		return nil, false
	}
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
		s.log.Warn("Embedding generation failed, using keyword fallback", "path", "embedding_unavailable", "error", err)
		return nil, false
	}
	return vecs[0], true
}

type scoredCourse struct {
	course *types.CorpusCourse
	sim    float64
}

func (s *recommendationService) rankCorpus(profile *types.AssessmentProfile, query []float32, corpus []*types.CorpusCourse, topN int) []types.RecommendedCourse {
	scored := make([]scoredCourse, 0, len(corpus))
	skipped := 0
	for _, c := range corpus {
		if c.Vector == nil {
			skipped++
			continue
		}
		sim := cosineSimilarity(query, c.Vector)
		if sim < s.cfg.MinSimilarity {
			continue
		}
		scored = append(scored, scoredCourse{course: c, sim: sim})
	}
	// Order on raw similarity, not the rounded score, so near ties keep
	// their fine-grained ordering.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].sim > scored[j].sim })
	if len(scored) > topN {
		scored = scored[:topN]
	}

	out := make([]types.RecommendedCourse, 0, len(scored))
	for _, sc := range scored {
		out = append(out, s.newRecommendedCourse(sc.course, normalizeScore(sc.sim), s.matchReasons(profile, sc.course), skillGapsAddressed(profile, sc.course)))
	}
	s.log.Debug("Ranked corpus",
		"scored", len(out),
		"corpus", len(corpus),
		"without_embedding", skipped,
	)
	return out
}

// newRecommendedCourse builds a fresh result record; the corpus course is
// left untouched so later scoring passes see unmodified input.
func (s *recommendationService) newRecommendedCourse(c *types.CorpusCourse, score int, reasons, gaps []string) types.RecommendedCourse {
	if reasons == nil {
		reasons = []string{}
	}
	if gaps == nil {
		gaps = []string{}
	}
	return types.RecommendedCourse{
		CourseID:           c.Course.ID,
		Title:              c.Course.Title,
		Code:               c.Course.Code,
		Description:        c.Course.Description,
		Duration:           c.Course.Duration,
		Category:           c.Course.Category,
		SkillType:          c.Course.SkillType,
		TargetOutcomes:     []string(c.Course.TargetOutcomes),
		Skills:             append([]string(nil), c.Skills...),
		RelevanceScore:     score,
		MatchReasons:       reasons,
		SkillGapsAddressed: gaps,
	}
}

// matchReasons derives up to MaxMatchReasons human-readable reasons from
// lexical overlap, with a generic default when nothing overlaps.
func (s *recommendationService) matchReasons(profile *types.AssessmentProfile, c *types.CorpusCourse) []string {
	limit := s.cfg.MaxMatchReasons
	reasons := make([]string, 0, limit)
	full := func() bool { return len(reasons) >= limit }

	for _, gap := range profile.SkillGap.PriorityA {
		if full() {
			break
		}
		if courseMentionsSkill(c, gap.Skill) {
			reasons = append(reasons, fmt.Sprintf("Builds your priority skill: %s", gap.Skill))
		}
	}
	for _, gap := range profile.SkillGap.PriorityB {
		if full() {
			break
		}
		if courseMentionsSkill(c, gap.Skill) {
			reasons = append(reasons, fmt.Sprintf("Strengthens %s", gap.Skill))
		}
	}
	for _, cluster := range profile.CareerFit.Clusters {
		if full() {
			break
		}
		for _, domain := range cluster.Domains {
			if full() {
				break
			}
			if courseMentionsSkill(c, domain) {
				reasons = append(reasons, fmt.Sprintf("Aligned with your interest in %s", domain))
			}
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Matches your career profile")
	}
	return reasons
}

// skillGapsAddressed lists gap names, priority A before B, whose text hits
// a course skill tag, the description, or the title.
func skillGapsAddressed(profile *types.AssessmentProfile, c *types.CorpusCourse) []string {
	out := []string{}
	for _, gap := range profile.RankedSkillGaps() {
		if courseMentionsSkill(c, gap.Skill) {
			out = append(out, gap.Skill)
		}
	}
	return out
}

func courseMentionsSkill(c *types.CorpusCourse, skill string) bool {
	for _, tag := range c.Skills {
		if textMatches(tag, skill) {
			return true
		}
	}
	return textMatches(c.Course.Description, skill) || textMatches(c.Course.Title, skill)
}

// keywordFallback is the degraded whole-profile path used when no query
// vector can be produced.
func (s *recommendationService) keywordFallback(ctx context.Context, profile *types.AssessmentProfile) []types.RecommendedCourse {
	keywords := s.fallbackKeywords(profile)
	if len(keywords) == 0 {
		s.log.Warn("No fallback keywords derivable from profile", "path", "keyword_fallback")
		return []types.RecommendedCourse{}
	}

	courses, err := s.courseRepo.GetActive(ctx, nil, s.cfg.FallbackCourseLimit)
	if err != nil {
		s.log.Error("Fallback corpus fetch failed, returning no recommendations", "path", "corpus_fetch", "error", err)
		return []types.RecommendedCourse{}
	}

	type keywordHit struct {
		course  *types.CorpusCourse
		matched int
	}
	hits := make([]keywordHit, 0, len(courses))
	for _, c := range courses {
		haystack := strings.ToLower(c.Course.Title + " " + c.Course.Description + " " + strings.Join(c.Skills, " "))
		matched := 0
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, keywordHit{course: c, matched: matched})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].matched > hits[j].matched })
	if len(hits) > s.cfg.FallbackCourseLimit {
		hits = hits[:s.cfg.FallbackCourseLimit]
	}

	out := make([]types.RecommendedCourse, 0, len(hits))
	for _, h := range hits {
		score := int(math.Round(float64(h.matched) / float64(len(keywords)) * 100))
		if score > 100 {
			score = 100
		}
		out = append(out, s.newRecommendedCourse(h.course, score, []string{"Matched by keywords"}, skillGapsAddressed(profile, h.course)))
	}
	s.log.Info("Keyword fallback produced recommendations", "path", "keyword_fallback", "keywords", len(keywords), "matched_courses", len(out))
	return out
}

// fallbackKeywords flattens skill-gap names and career-cluster titles and
// domains into a deduplicated lowercase keyword list, widened with any
// injected taxonomy terms for the cluster titles.
func (s *recommendationService) fallbackKeywords(profile *types.AssessmentProfile) []string {
	seen := map[string]bool{}
	keywords := []string{}
	push := func(v string) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		keywords = append(keywords, v)
	}

	for _, gap := range profile.RankedSkillGaps() {
		push(gap.Skill)
	}
	for _, cluster := range profile.CareerFit.Clusters {
		push(cluster.Title)
		for _, domain := range cluster.Domains {
			push(domain)
		}
		for _, related := range s.cfg.RelatedKeywords(cluster.Title) {
			push(related)
		}
	}
	return keywords
}

func (s *recommendationService) SaveRecommendations(ctx context.Context, studentID uuid.UUID, recs []types.RecommendedCourse, assessmentResultID *uuid.UUID, recType string) ([]*types.CourseRecommendation, error) {
	if recType == "" {
		recType = types.RecommendationTypeAssessment
	}
	now := time.Now().UTC()

	saved := make([]*types.CourseRecommendation, 0, len(recs))
	for _, rec := range recs {
		row := &types.CourseRecommendation{
			StudentID:          studentID,
			CourseID:           rec.CourseID,
			AssessmentResultID: assessmentResultID,
			RelevanceScore:     rec.RelevanceScore,
			MatchReasons:       datatypes.NewJSONSlice(rec.MatchReasons),
			SkillGapsAddressed: datatypes.NewJSONSlice(rec.SkillGapsAddressed),
			RecommendationType: recType,
			Status:             types.RecommendationStatusActive,
			RecommendedAt:      now,
		}
		stored, err := s.recRepo.Upsert(ctx, nil, row)
		if err != nil {
			s.log.Error("SaveRecommendations failed", "error", err, "student_id", studentID, "course_id", rec.CourseID)
			return nil, fmt.Errorf("save recommendation for course %s: %w", rec.CourseID, err)
		}
		saved = append(saved, stored)
	}
	return saved, nil
}

func (s *recommendationService) GetSavedRecommendations(ctx context.Context, studentID uuid.UUID, filter types.SavedRecommendationFilter) ([]*types.CourseRecommendation, error) {
	recs, err := s.recRepo.GetByStudent(ctx, nil, studentID, filter)
	if err != nil {
		s.log.Error("GetSavedRecommendations failed", "error", err, "student_id", studentID)
		return nil, fmt.Errorf("load saved recommendations: %w", err)
	}
	return recs, nil
}

func (s *recommendationService) UpdateRecommendationStatus(ctx context.Context, id uuid.UUID, status string, dismissedReason *string) (*types.CourseRecommendation, error) {
	if !types.ValidRecommendationStatus(status) {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidStatus, fmt.Errorf("unknown recommendation status %q", status))
	}
	var dismissedAt *time.Time
	if status == types.RecommendationStatusDismissed {
		now := time.Now().UTC()
		dismissedAt = &now
	}
	rec, err := s.recRepo.UpdateStatus(ctx, nil, id, status, dismissedAt, dismissedReason)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusNotFound, apierr.CodeRecommendationNotFound, fmt.Errorf("recommendation %s not found", id))
		}
		s.log.Error("UpdateRecommendationStatus failed", "error", err, "recommendation_id", id)
		return nil, fmt.Errorf("update recommendation status: %w", err)
	}
	return rec, nil
}
