package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brightpath/brightpath-backend/internal/logger"
)

// Recommender holds every tuning constant the ranking and matching code
// depends on, so thresholds can be changed per deployment without touching
// the scoring logic. Zero values are filled from Default on load.
type Recommender struct {
	// Whole-profile ranking
	TopN                int     `yaml:"topN"`
	MinSimilarity       float64 `yaml:"minSimilarity"`
	MaxMatchReasons     int     `yaml:"maxMatchReasons"`
	FallbackCourseLimit int     `yaml:"fallbackCourseLimit"`
	MaxPerType          int     `yaml:"maxPerType"`

	// Per-skill-gap hybrid matching
	SkillGapMinSimilarity float64 `yaml:"skillGapMinSimilarity"`
	SemanticPathLimit     int     `yaml:"semanticPathLimit"`
	MaxPerSkillGap        int     `yaml:"maxPerSkillGap"`
	FusionBoost           int     `yaml:"fusionBoost"`

	// Taxonomy maps a lowercased career-cluster keyword to related skill
	// keywords, used to widen keyword-fallback matching.
	Taxonomy map[string][]string `yaml:"taxonomy"`
}

func Default() Recommender {
	return Recommender{
		TopN:                  10,
		MinSimilarity:         0.3,
		MaxMatchReasons:       3,
		FallbackCourseLimit:   10,
		MaxPerType:            5,
		SkillGapMinSimilarity: 0.4,
		SemanticPathLimit:     5,
		MaxPerSkillGap:        3,
		FusionBoost:           10,
		Taxonomy:              map[string][]string{},
	}
}

// Load reads the recommender config from the YAML file at path. An empty
// path returns defaults. Fields absent from the file keep their defaults.
func Load(path string, log *logger.Logger) (Recommender, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read recommender config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse recommender config: %w", err)
	}
	cfg.fillZero()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	if log != nil {
		log.Info("Recommender config loaded", "path", path, "topN", cfg.TopN, "minSimilarity", cfg.MinSimilarity)
	}
	return cfg, nil
}

func (c *Recommender) fillZero() {
	def := Default()
	if c.TopN <= 0 {
		c.TopN = def.TopN
	}
	if c.MaxMatchReasons <= 0 {
		c.MaxMatchReasons = def.MaxMatchReasons
	}
	if c.FallbackCourseLimit <= 0 {
		c.FallbackCourseLimit = def.FallbackCourseLimit
	}
	if c.MaxPerType <= 0 {
		c.MaxPerType = def.MaxPerType
	}
	if c.SemanticPathLimit <= 0 {
		c.SemanticPathLimit = def.SemanticPathLimit
	}
	if c.MaxPerSkillGap <= 0 {
		c.MaxPerSkillGap = def.MaxPerSkillGap
	}
	if c.FusionBoost <= 0 {
		c.FusionBoost = def.FusionBoost
	}
	if c.Taxonomy == nil {
		c.Taxonomy = map[string][]string{}
	}
}

func (c *Recommender) validate() error {
	if c.MinSimilarity < -1 || c.MinSimilarity > 1 {
		return fmt.Errorf("minSimilarity %v out of range [-1, 1]", c.MinSimilarity)
	}
	if c.SkillGapMinSimilarity < -1 || c.SkillGapMinSimilarity > 1 {
		return fmt.Errorf("skillGapMinSimilarity %v out of range [-1, 1]", c.SkillGapMinSimilarity)
	}
	return nil
}

// RelatedKeywords returns the taxonomy expansion for a cluster title, or
// nil when the title is unmapped.
func (c *Recommender) RelatedKeywords(clusterTitle string) []string {
	if c.Taxonomy == nil {
		return nil
	}
	return c.Taxonomy[strings.ToLower(strings.TrimSpace(clusterTitle))]
}
