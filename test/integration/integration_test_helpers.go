//go:build integration

package integration

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clarityhq/clarity/cmd"
	"github.com/clarityhq/clarity/internal/llm"
	"github.com/clarityhq/clarity/internal/proxyclient"
	"github.com/clarityhq/clarity/internal/server"
)

// startProxy wires a full proxy instance to the given mock upstream client
// and returns a proxyclient bound to it: the same round trip a browser
// front end takes, minus the real upstream API.
func startProxy(t *testing.T, mockClient *cmd.MockLLMClient) *proxyclient.Client {
	t.Helper()

	srv, err := server.New("configured-test-key", func(apiKey string) (llm.Client, error) {
		return mockClient, nil
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	client, err := proxyclient.New(ts.URL, "")
	require.NoError(t, err)
	return client
}

func sampleQuestions() []llm.ClarificationQuestion {
	return []llm.ClarificationQuestion{
		{
			ID:   "q1",
			Text: "What is the target audience?",
			Options: []llm.QuestionOption{
				{ID: "o1", Label: "General readers", Value: "a general audience"},
				{ID: "o2", Label: "Domain experts", Value: "domain experts"},
			},
		},
		{
			ID:   "q2",
			Text: "How long should it be?",
			Options: []llm.QuestionOption{
				{ID: "o1", Label: "Brief", Value: "under 500 words"},
				{ID: "o2", Label: "In depth", Value: "around 2000 words"},
			},
		},
	}
}
