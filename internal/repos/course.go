package repos

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath/brightpath-backend/internal/logger"
	"github.com/brightpath/brightpath-backend/internal/types"
)

// CourseRepo is the corpus accessor: eligible courses plus their grouped
// skill tags and parsed embeddings.
type CourseRepo interface {
	GetCorpus(ctx context.Context, tx *gorm.DB, skillType string) ([]*types.CorpusCourse, error)
	GetCorpusByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CorpusCourse, error)
	GetActive(ctx context.Context, tx *gorm.DB, limit int) ([]*types.CorpusCourse, error)
	SearchSkillTags(ctx context.Context, tx *gorm.DB, fragment string) ([]*types.CourseSkill, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) GetCorpus(ctx context.Context, tx *gorm.DB, skillType string) ([]*types.CorpusCourse, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var courses []*types.Course
	q := transaction.WithContext(ctx).Where("status = ?", types.CourseStatusActive)
	if skillType != "" {
		q = q.Where("skill_type = ?", skillType)
	}
	if err := q.Order("title ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return r.attachSkills(ctx, transaction, courses)
}

func (r *courseRepo) GetCorpusByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CorpusCourse, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return []*types.CorpusCourse{}, nil
	}
	var courses []*types.Course
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Where("status = ?", types.CourseStatusActive).
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return r.attachSkills(ctx, transaction, courses)
}

func (r *courseRepo) GetActive(ctx context.Context, tx *gorm.DB, limit int) ([]*types.CorpusCourse, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var courses []*types.Course
	q := transaction.WithContext(ctx).
		Where("status = ?", types.CourseStatusActive).
		Order("title ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&courses).Error; err != nil {
		return nil, err
	}
	return r.attachSkills(ctx, transaction, courses)
}

// LOWER(...) LIKE keeps the predicate portable across postgres and the
// sqlite used in tests.
func (r *courseRepo) SearchSkillTags(ctx context.Context, tx *gorm.DB, fragment string) ([]*types.CourseSkill, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return []*types.CourseSkill{}, nil
	}
	var tags []*types.CourseSkill
	pattern := "%" + strings.ToLower(fragment) + "%"
	if err := transaction.WithContext(ctx).
		Where("LOWER(skill_tag) LIKE ?", pattern).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *courseRepo) attachSkills(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.CorpusCourse, error) {
	out := make([]*types.CorpusCourse, 0, len(courses))
	if len(courses) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	var tags []*types.CourseSkill
	if err := tx.WithContext(ctx).
		Where("course_id IN ?", ids).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	byCourse := make(map[uuid.UUID][]string, len(courses))
	for _, t := range tags {
		byCourse[t.CourseID] = append(byCourse[t.CourseID], t.SkillTag)
	}
	for _, c := range courses {
		out = append(out, &types.CorpusCourse{
			Course: c,
			Skills: byCourse[c.ID],
			Vector: ParseEmbedding(c.Embedding),
		})
	}
	return out, nil
}

// ParseEmbedding decodes a stored embedding. It accepts a JSON-array-like
// string ("[0.1, 0.2]") or bare comma-separated floats ("0.1,0.2") and
// returns nil on anything it cannot decode, so one malformed row never
// fails a corpus fetch.
func ParseEmbedding(raw string) []float32 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	parts := strings.Split(raw, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		out = append(out, float32(f))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
