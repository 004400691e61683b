package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/pkg/errors"
	"os"
)

// ErrNoProfile means the resume has not been parsed or the result is unusable.
var ErrNoProfile = errors.New("candidate profile is not available")

// Load reads the profile produced by the resume parser.
func Load(path string) (models.CandidateProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.CandidateProfile{}, fmt.Errorf("%w: %v", ErrNoProfile, err)
	}

	var profile models.CandidateProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return models.CandidateProfile{}, fmt.Errorf("%w: decode %s: %v", ErrNoProfile, path, err)
	}

	if err := profile.Validate(); err != nil {
		return models.CandidateProfile{}, fmt.Errorf("%w: %v", ErrNoProfile, err)
	}
	return profile, nil
}

// File re-reads the profile on every run so an updated resume is picked up.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Profile(_ context.Context) (models.CandidateProfile, error) {
	return Load(f.path)
}
