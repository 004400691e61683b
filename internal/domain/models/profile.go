package models

import (
	"github.com/go-playground/validator/v10"
	"strings"
)

// CandidateProfile is produced by the resume parsing step and is read-only here.
type CandidateProfile struct {
	Name            string   `json:"name"`
	ExperienceYears int      `json:"experience_years" validate:"gte=0"`
	Level           string   `json:"current_level" validate:"omitempty,oneof=junior mid senior lead principal"`
	TargetRoles     []string `json:"job_titles" validate:"required,min=1,dive,required"`
	Skills          []string `json:"skills" validate:"required,min=1,dive,required"`
	Locations       []string `json:"locations"`
}

var profileValidator = validator.New()

func (p CandidateProfile) Validate() error {
	return profileValidator.Struct(p)
}

// Summary is the compact form sent to the scoring capability.
func (p CandidateProfile) Summary() map[string]any {
	return map[string]any{
		"experience_years": p.ExperienceYears,
		"current_level":    p.Level,
		"target_roles":     p.TargetRoles,
		"skills":           p.Skills,
		"locations":        p.Locations,
	}
}

func (p CandidateProfile) HasSkill(skill string) bool {
	skill = strings.ToLower(strings.TrimSpace(skill))
	for _, s := range p.Skills {
		if strings.ToLower(strings.TrimSpace(s)) == skill {
			return true
		}
	}
	return false
}
