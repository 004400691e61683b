package reporting

import (
	"context"
	"fmt"
	"github.com/maxaizer/job-digest/internal/domain/models"
	log "github.com/sirupsen/logrus"
	"os"
	"path/filepath"
	"time"
)

const latestFileName = "jobs.json"

// JSONFile writes the dashboard document to dir/jobs.json and keeps a dated copy.
type JSONFile struct {
	dir string
	now func() time.Time
}

func NewJSONFile(dir string) *JSONFile {
	return &JSONFile{dir: dir, now: time.Now}
}

func (j *JSONFile) Report(_ context.Context, report models.Report) error {
	if err := os.MkdirAll(j.dir, 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	data, err := marshalDashboard(report, j.now())
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	dated := fmt.Sprintf("jobs-%s.json", report.Date.Format(time.DateOnly))
	for _, name := range []string{dated, latestFileName} {
		if err := writeAtomic(filepath.Join(j.dir, name), data); err != nil {
			return err
		}
	}

	log.Infof("saved report %s with %d jobs (%.1f KB)", filepath.Join(j.dir, latestFileName),
		report.Summary.Reported, float64(len(data))/1024)
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
