package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/brightpath/brightpath-backend/internal/apierr"
	"github.com/brightpath/brightpath-backend/internal/types"
)

// BuildProfileText flattens an assessment profile into the weighted query
// text used for embedding. Section order encodes relative importance and
// must not be reordered: embeddings weigh earlier terms more heavily.
func BuildProfileText(profile *types.AssessmentProfile) (string, error) {
	if profile == nil {
		return "", apierr.New(http.StatusBadRequest, apierr.CodeInsufficientProfileData, errors.New("assessment profile is nil"))
	}
	if !profile.HasSkillGaps() && len(profile.CareerFit.Clusters) == 0 {
		return "", apierr.New(http.StatusBadRequest, apierr.CodeInsufficientProfileData, errors.New("assessment profile has neither skill gaps nor career clusters"))
	}

	var sections []string
	add := func(label string, values []string) {
		joined := joinNonEmpty(values)
		if joined == "" {
			return
		}
		sections = append(sections, label+": "+joined)
	}

	add("Priority Skills to Develop", skillNames(profile.SkillGap.PriorityA))
	add("Secondary Skills to Develop", skillNames(profile.SkillGap.PriorityB))
	add("Current Strengths", profile.SkillGap.CurrentStrengths)
	if track := strings.TrimSpace(profile.SkillGap.RecommendedTrack); track != "" {
		sections = append(sections, "Recommended Learning Track: "+track)
	}

	clusters := profile.CareerFit.Clusters
	if len(clusters) > 0 {
		titles := make([]string, 0, 3)
		for i, cl := range clusters {
			if i == 3 {
				break
			}
			titles = append(titles, cl.Title)
		}
		add("Career Interests", titles)
		add("Career Domains", clusters[0].Domains)
		add("Entry-Level Roles", clusters[0].Roles.Entry)
	}

	add("Areas to Improve", profile.Employability.ImprovementAreas)
	add("Employability Strengths", profile.Employability.StrengthAreas)

	if code := strings.TrimSpace(profile.RIASEC.Code); code != "" {
		sections = append(sections, "RIASEC Code: "+code)
	}
	add("Aptitude Strengths", profile.Aptitude.TopStrengths)
	if stream := strings.TrimSpace(profile.Stream); stream != "" {
		sections = append(sections, "Field of Study: "+stream)
	}

	if len(sections) == 0 {
		return "", apierr.New(http.StatusBadRequest, apierr.CodeInsufficientProfileData, fmt.Errorf("assessment profile carries no usable content"))
	}
	return strings.Join(sections, "\n\n"), nil
}

func skillNames(entries []types.SkillGapEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Skill)
	}
	return out
}

func joinNonEmpty(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}
