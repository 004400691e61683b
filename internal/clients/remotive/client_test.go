package remotive

import (
	"bytes"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"os"
	"testing"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

func getJobsMock() (*http.Response, error) {
	file, err := os.ReadFile("testdata/get_jobs.json")

	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewBuffer(file)),
	}, err
}

func Test_RemotiveClient_GetJobs_ShouldBeSuccessful(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.String() == "https://remotive.com/api/remote-jobs?category=qa&limit=20&search=sdet"
	})).Return(getJobsMock())

	client := NewClient()
	client.SetHTTPClient(mockClient)

	jobs, err := client.GetJobs(context.Background(), SearchParameters{Search: "sdet", Category: "qa", Limit: 20})
	require.NoError(t, err)

	assert.Len(jobs, 2)
	assert.Equal(1912345, jobs[0].ID)
	assert.Equal("Senior QA Automation Engineer", jobs[0].Title)
	assert.Equal("Acme", jobs[0].CompanyName)
	assert.Equal("India", jobs[0].CandidateRequiredLocation)
	assert.Equal(2024, jobs[0].PublicationDate.Year())
	assert.Equal("Worldwide", jobs[1].CandidateRequiredLocation)
}

func Test_RemotiveClient_GetJobs_FailedStatus(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusTooManyRequests,
		Body:       io.NopCloser(bytes.NewBufferString("slow down")),
	}, nil)

	client := NewClient()
	client.SetHTTPClient(mockClient)

	_, err := client.GetJobs(context.Background(), SearchParameters{Search: "qa"})
	assert.ErrorContains(t, err, "429")
}

func Test_RemotiveClient_GetJobs_InvalidParameters(t *testing.T) {
	client := NewClient()
	_, err := client.GetJobs(context.Background(), SearchParameters{})
	assert.ErrorIs(t, err, ErrEmptySearch)
}
