package profile

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_Load_ExampleProfile(t *testing.T) {
	profile, err := NewFile("../../configs/resume_profile.example.json").Profile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, profile.ExperienceYears)
	assert.Equal(t, "senior", profile.Level)
	assert.Contains(t, profile.Skills, "Selenium")
	assert.True(t, profile.HasSkill("selenium"))
}

func Test_Load_MissingOrInvalid(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "absent.json")},
		{"broken json", writeProfile(t, `{"skills": [`)},
		{"no skills", writeProfile(t, `{"job_titles": ["QA"], "skills": []}`)},
		{"unknown level", writeProfile(t, `{"job_titles": ["QA"], "skills": ["Java"], "current_level": "guru"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			assert.ErrorIs(t, err, ErrNoProfile)
		})
	}
}
