package sources

import (
	"context"
	"errors"
	"github.com/maxaizer/job-digest/internal/clients/remotive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func Test_File_ReadsJSONArray(t *testing.T) {
	postings, err := NewFile("linkedin", "testdata/feed.json").Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, postings, 2)
	assert.Equal(t, "li-1", postings[0].String("id", "job_id"))
	assert.Equal(t, "QA Engineer", postings[0].String("title", "position"))
	assert.NotNil(t, postings[0].Time("posted_at", "posted"))
	assert.Equal(t, "Selenium, Java, CI", postings[1].String("description", "summary"))
}

func Test_File_ReadsJSONLinesSkippingGarbage(t *testing.T) {
	source := NewFile("weworkremotely", "testdata/feed.jsonl")
	postings, err := source.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "weworkremotely", source.Name())
	require.Len(t, postings, 2)
	assert.Equal(t, "Globex", postings[0].String("company"))
	assert.Equal(t, "wwr-2", postings[1].String("id"))
}

func Test_File_MissingFileFails(t *testing.T) {
	_, err := NewFile("missing", "testdata/does-not-exist.json").Fetch(context.Background())
	assert.Error(t, err)
}

type mockRemotiveClient struct {
	mock.Mock
}

func (m *mockRemotiveClient) GetJobs(ctx context.Context, parameters remotive.SearchParameters) ([]remotive.Job, error) {
	args := m.Called(ctx, parameters)
	jobs, _ := args.Get(0).([]remotive.Job)
	return jobs, args.Error(1)
}

func Test_Remotive_MapsJobs(t *testing.T) {
	published := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	client := &mockRemotiveClient{}
	client.On("GetJobs", mock.Anything, remotive.SearchParameters{Search: "qa", Category: "qa", Limit: 5}).
		Return([]remotive.Job{{
			ID:                        42,
			URL:                       "https://remotive.com/remote-jobs/qa/42",
			Title:                     "QA Engineer",
			CompanyName:               "Acme",
			CandidateRequiredLocation: "India",
			PublicationDate:           remotive.CustomTime{Time: published},
		}}, nil)
	client.On("GetJobs", mock.Anything, remotive.SearchParameters{Search: "sdet", Category: "qa", Limit: 5}).
		Return(nil, errors.New("429"))

	postings, err := NewRemotive(client, []string{"qa", "sdet"}, "qa", 5).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, postings, 1)
	assert.Equal(t, "42", postings[0].String("id"))
	assert.Equal(t, "Acme", postings[0].String("company"))
	assert.Equal(t, published, *postings[0].Time("posted_at"))
}

func Test_Remotive_FailsWhenEveryQueryFails(t *testing.T) {
	client := &mockRemotiveClient{}
	client.On("GetJobs", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := NewRemotive(client, []string{"qa"}, "", 0).Fetch(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}
