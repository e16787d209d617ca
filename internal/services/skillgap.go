package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath/brightpath-backend/internal/config"
	"github.com/brightpath/brightpath-backend/internal/logger"
	"github.com/brightpath/brightpath-backend/internal/repos"
	"github.com/brightpath/brightpath-backend/internal/types"
)

type SkillGapService interface {
	// GetCoursesForSkillGap returns up to MaxPerSkillGap courses for one
	// named gap. A nil corpus is fetched on demand; callers matching many
	// gaps pass a shared corpus to avoid repeated fetches. Never errors:
	// an unmatched or failed gap yields an empty slice.
	GetCoursesForSkillGap(ctx context.Context, gap types.SkillGapEntry, corpus []*types.CorpusCourse) []types.SkillGapCourseMatch
	GetCoursesForMultipleSkillGaps(ctx context.Context, gaps []types.SkillGapEntry) map[string][]types.SkillGapCourseMatch
}

type skillGapService struct {
	db         *gorm.DB
	log        *logger.Logger
	cfg        config.Recommender
	embedder   Embedder
	courseRepo repos.CourseRepo
}

func NewSkillGapService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg config.Recommender,
	embedder Embedder,
	courseRepo repos.CourseRepo,
) SkillGapService {
	return &skillGapService{
		db:         db,
		log:        baseLog.With("service", "SkillGapService"),
		cfg:        cfg,
		embedder:   embedder,
		courseRepo: courseRepo,
	}
}

func (s *skillGapService) GetCoursesForSkillGap(ctx context.Context, gap types.SkillGapEntry, corpus []*types.CorpusCourse) []types.SkillGapCourseMatch {
	skill := strings.TrimSpace(gap.Skill)
	if skill == "" {
		return []types.SkillGapCourseMatch{}
	}

	if corpus == nil {
		fetched, err := s.courseRepo.GetCorpus(ctx, nil, "")
		if err != nil {
			s.log.Error("Corpus fetch failed for skill gap", "path", "corpus_fetch", "skill", skill, "error", err)
			return []types.SkillGapCourseMatch{}
		}
		corpus = fetched
	}

	direct := s.directMatches(ctx, skill)
	semantic := s.semanticMatches(ctx, skill, corpus)
	fused := s.fuse(skill, direct, semantic)

	for i := range fused {
		fused[i].WhyThisCourse = whyThisCourse(skill, &fused[i])
	}
	return fused
}

func (s *skillGapService) GetCoursesForMultipleSkillGaps(ctx context.Context, gaps []types.SkillGapEntry) map[string][]types.SkillGapCourseMatch {
	out := make(map[string][]types.SkillGapCourseMatch, len(gaps))

	// One corpus fetch shared across all gaps. On failure every gap still
	// gets its direct path; passing an empty non-nil corpus prevents each
	// per-gap call from re-fetching.
	corpus, err := s.courseRepo.GetCorpus(ctx, nil, "")
	if err != nil {
		s.log.Error("Shared corpus fetch failed for skill gap batch", "path", "corpus_fetch", "error", err)
		corpus = []*types.CorpusCourse{}
	}

	for _, gap := range gaps {
		skill := strings.TrimSpace(gap.Skill)
		if skill == "" {
			continue
		}
		out[skill] = s.GetCoursesForSkillGap(ctx, gap, corpus)
	}
	return out
}

// directMatches runs the lexical path: tag-relation substring search, then
// a strength per course from how closely its tags match the skill.
func (s *skillGapService) directMatches(ctx context.Context, skill string) []types.SkillGapCourseMatch {
	tags, err := s.courseRepo.SearchSkillTags(ctx, nil, skill)
	if err != nil {
		s.log.Warn("Skill tag search failed, semantic path only", "skill", skill, "error", err)
		return nil
	}
	if len(tags) == 0 {
		return nil
	}

	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0, len(tags))
	for _, t := range tags {
		if !seen[t.CourseID] {
			seen[t.CourseID] = true
			ids = append(ids, t.CourseID)
		}
	}

	courses, err := s.courseRepo.GetCorpusByIDs(ctx, nil, ids)
	if err != nil {
		s.log.Warn("Loading direct-match courses failed, semantic path only", "skill", skill, "error", err)
		return nil
	}

	out := make([]types.SkillGapCourseMatch, 0, len(courses))
	for _, c := range courses {
		strength := directMatchStrength(skill, c.Skills)
		out = append(out, types.SkillGapCourseMatch{
			RecommendedCourse: newSkillGapCourseBase(c, int(strength*100), directReason(skill, c.Skills)),
			MatchType:         types.MatchTypeDirect,
			MatchStrength:     strength,
			SkillGapAddressed: skill,
		})
	}
	return out
}

// directMatchStrength: 1.0 when some tag equals the skill, 0.8 on a
// substring hit in either direction, 0.6 otherwise (course reached through
// the tag search but without a tag-level hit on its full tag set).
func directMatchStrength(skill string, tags []string) float64 {
	lowered := strings.ToLower(strings.TrimSpace(skill))
	substring := false
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == lowered {
			return 1.0
		}
		if strings.Contains(t, lowered) || strings.Contains(lowered, t) {
			substring = true
		}
	}
	if substring {
		return 0.8
	}
	return 0.6
}

func directReason(skill string, tags []string) []string {
	for _, tag := range tags {
		if textMatches(tag, skill) {
			return []string{fmt.Sprintf("Directly teaches %s", tag)}
		}
	}
	return []string{fmt.Sprintf("Covers skills related to %s", skill)}
}

// semanticMatches embeds a synthetic skill sentence and scores the shared
// corpus against it. An embedding failure yields an empty set, never an
// error.
func (s *skillGapService) semanticMatches(ctx context.Context, skill string, corpus []*types.CorpusCourse) []scoredCourse {
	if s.embedder == nil {
		return nil
	}
	sentence := fmt.Sprintf("Skill: %s. Looking for courses that teach %s skills and competencies.", skill, skill)
	vecs, err := s.embedder.Embed(ctx, []string{sentence})
	if err != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
		s.log.Warn("Skill embedding failed, direct path only", "path", "embedding_unavailable", "skill", skill, "error", err)
		return nil
	}
	query := vecs[0]

	scored := make([]scoredCourse, 0, len(corpus))
	for _, c := range corpus {
		if c.Vector == nil {
			continue
		}
		sim := cosineSimilarity(query, c.Vector)
		if sim < s.cfg.SkillGapMinSimilarity {
			continue
		}
		scored = append(scored, scoredCourse{course: c, sim: sim})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].sim > scored[j].sim })
	if len(scored) > s.cfg.SemanticPathLimit {
		scored = scored[:s.cfg.SemanticPathLimit]
	}
	return scored
}

// fuse unions the two paths keyed by course id. A course on both paths
// keeps its direct reasons and gets a capped score boost; a semantic-only
// course joins with a semantic reason. The union is re-ranked and cut to
// MaxPerSkillGap.
func (s *skillGapService) fuse(skill string, direct []types.SkillGapCourseMatch, semantic []scoredCourse) []types.SkillGapCourseMatch {
	byID := make(map[uuid.UUID]int, len(direct))
	fused := append([]types.SkillGapCourseMatch{}, direct...)
	for i := range fused {
		byID[fused[i].CourseID] = i
	}

	for _, sc := range semantic {
		if idx, ok := byID[sc.course.Course.ID]; ok {
			boosted := fused[idx].RelevanceScore + s.cfg.FusionBoost
			if boosted > 100 {
				boosted = 100
			}
			fused[idx].RelevanceScore = boosted
			fused[idx].MatchReasons = append(fused[idx].MatchReasons, fmt.Sprintf("Strong semantic match for %s", skill))
			continue
		}
		fused = append(fused, types.SkillGapCourseMatch{
			RecommendedCourse: newSkillGapCourseBase(sc.course, normalizeScore(sc.sim), []string{fmt.Sprintf("Semantically related to %s", skill)}),
			MatchType:         types.MatchTypeSemantic,
			MatchStrength:     sc.sim,
			SkillGapAddressed: skill,
		})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].RelevanceScore != fused[j].RelevanceScore {
			return fused[i].RelevanceScore > fused[j].RelevanceScore
		}
		return fused[i].MatchStrength > fused[j].MatchStrength
	})
	if len(fused) > s.cfg.MaxPerSkillGap {
		fused = fused[:s.cfg.MaxPerSkillGap]
	}
	return fused
}

func newSkillGapCourseBase(c *types.CorpusCourse, score int, reasons []string) types.RecommendedCourse {
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
		SkillGapsAddressed: []string{},
	}
}

// whyThisCourse picks exactly one explanation, first rule wins:
// exact tag, related tag, overlapping tags, title/description mention,
// then plain semantic alignment.
func whyThisCourse(skill string, m *types.SkillGapCourseMatch) string {
	lowered := strings.ToLower(strings.TrimSpace(skill))

	for _, tag := range m.Skills {
		if strings.ToLower(strings.TrimSpace(tag)) == lowered {
			return fmt.Sprintf("%s teaches exactly the skill you need: %s.", m.Title, skill)
		}
	}
	for _, tag := range m.Skills {
		if textMatches(tag, skill) {
			return fmt.Sprintf("%s covers %s, which builds directly on %s.", m.Title, tag, skill)
		}
	}
	if m.MatchType == types.MatchTypeDirect && len(m.Skills) > 0 {
		cited := m.Skills
		if len(cited) > 2 {
			cited = cited[:2]
		}
		return fmt.Sprintf("%s develops related skills such as %s.", m.Title, strings.Join(cited, " and "))
	}
	if textMatches(m.Title, skill) || textMatches(m.Description, skill) {
		return fmt.Sprintf("%s addresses %s as part of its curriculum.", m.Title, skill)
	}
	return fmt.Sprintf("%s is closely aligned with %s based on its learning outcomes.", m.Title, skill)
}
