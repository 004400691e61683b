package gemini

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
	"testing"
)

func Test_IsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &googleapi.Error{Code: 429}, true},
		{"server error", fmt.Errorf("generate: %w", &googleapi.Error{Code: 503}), true},
		{"bad request", &googleapi.Error{Code: 400}, false},
		{"string fallback", errors.New("googleapi: Error 500: internal"), true},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"other", errors.New("response part is not text"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
