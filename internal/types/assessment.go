package types

// AssessmentProfile is the student assessment snapshot the recommendation
// engine reads from. It is owned by the assessment subsystem and never
// mutated here.
type AssessmentProfile struct {
	SkillGap      SkillGapSummary      `json:"skillGap"`
	CareerFit     CareerFit            `json:"careerFit"`
	Employability EmployabilitySignals `json:"employability"`
	RIASEC        RIASECResult         `json:"riasec"`
	Aptitude      AptitudeResult       `json:"aptitude"`
	Stream        string               `json:"stream"`
}

type SkillGapSummary struct {
	PriorityA        []SkillGapEntry `json:"priorityA"`
	PriorityB        []SkillGapEntry `json:"priorityB"`
	CurrentStrengths []string        `json:"currentStrengths"`
	RecommendedTrack string          `json:"recommendedTrack"`
}

type SkillGapEntry struct {
	Skill        string `json:"skill"`
	CurrentLevel string `json:"currentLevel,omitempty"`
	TargetLevel  string `json:"targetLevel,omitempty"`
}

type CareerFit struct {
	Clusters []CareerCluster `json:"clusters"`
}

// CareerCluster entries arrive ordered by fit, strongest first.
type CareerCluster struct {
	Title   string       `json:"title"`
	Domains []string     `json:"domains"`
	Roles   ClusterRoles `json:"roles"`
}

type ClusterRoles struct {
	Entry []string `json:"entry"`
}

type EmployabilitySignals struct {
	ImprovementAreas []string `json:"improvementAreas"`
	StrengthAreas    []string `json:"strengthAreas"`
}

type RIASECResult struct {
	Code string `json:"code"`
}

type AptitudeResult struct {
	TopStrengths []string `json:"topStrengths"`
}

// HasSkillGaps reports whether at least one ranked gap is present.
func (p *AssessmentProfile) HasSkillGaps() bool {
	return len(p.SkillGap.PriorityA) > 0 || len(p.SkillGap.PriorityB) > 0
}

// RankedSkillGaps returns priority-A entries followed by priority-B.
func (p *AssessmentProfile) RankedSkillGaps() []SkillGapEntry {
	out := make([]SkillGapEntry, 0, len(p.SkillGap.PriorityA)+len(p.SkillGap.PriorityB))
	out = append(out, p.SkillGap.PriorityA...)
	out = append(out, p.SkillGap.PriorityB...)
	return out
}
