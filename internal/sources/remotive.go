package sources

import (
	"context"
	"github.com/maxaizer/job-digest/internal/clients/remotive"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/maxaizer/job-digest/internal/logger"
	log "github.com/sirupsen/logrus"
	"strconv"
)

const RemotiveName = "remotive"

type remotiveClient interface {
	GetJobs(ctx context.Context, parameters remotive.SearchParameters) ([]remotive.Job, error)
}

// Remotive runs every configured query against the Remotive API. A failed query
// is skipped; the source fails only when every query fails.
type Remotive struct {
	client   remotiveClient
	queries  []string
	category string
	limit    int
}

func NewRemotive(client remotiveClient, queries []string, category string, limit int) *Remotive {
	return &Remotive{client: client, queries: queries, category: category, limit: limit}
}

func (r *Remotive) Name() string {
	return RemotiveName
}

func (r *Remotive) Fetch(ctx context.Context) ([]models.RawPosting, error) {
	var postings []models.RawPosting
	var lastErr error
	failed := 0

	for _, query := range r.queries {
		jobs, err := r.client.GetJobs(ctx, remotive.SearchParameters{
			Search:   query,
			Category: r.category,
			Limit:    r.limit,
		})
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeSource).
				Warnf("remotive query %q failed: %v", query, err)
			lastErr = err
			failed++
			continue
		}

		for _, job := range jobs {
			postings = append(postings, jobToRaw(job))
		}
	}

	if failed > 0 && failed == len(r.queries) {
		return nil, lastErr
	}
	return postings, nil
}

func jobToRaw(job remotive.Job) models.RawPosting {
	fields := map[string]any{
		"id":          strconv.Itoa(job.ID),
		"title":       job.Title,
		"company":     job.CompanyName,
		"location":    job.CandidateRequiredLocation,
		"url":         job.URL,
		"description": job.Description,
		"category":    job.Category,
		"salary":      job.Salary,
		"job_type":    job.JobType,
	}
	if !job.PublicationDate.IsZero() {
		fields["posted_at"] = job.PublicationDate.Time
	}
	return models.NewRawPosting(fields)
}
