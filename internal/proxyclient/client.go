// Package proxyclient implements llm.Client over a running Clarity
// proxy's /api/generate endpoint: the same path the browser front end
// takes. It lets the workflow machine and the optimize command run
// against a shared proxy instead of calling the upstream API directly.
package proxyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clarityhq/clarity/internal/llm"
	"github.com/clarityhq/clarity/internal/prompt"
	"github.com/clarityhq/clarity/internal/server"
)

// Client talks to a Clarity proxy over HTTP. It satisfies llm.Client.
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	apiKey     string // optional; forwarded in the request body
}

// New creates a proxy client for the given base URL. apiKey may be empty
// when the proxy holds its own configured credential.
func New(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, ErrServerURLMissing
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServerURLParse, err)
	}

	return &Client{
		BaseURL: parsed,
		HTTPClient: &http.Client{
			// Slightly above the proxy's own upstream timeout so the
			// proxy's 504 arrives before this client gives up.
			Timeout: 25 * time.Second,
		},
		apiKey: apiKey,
	}, nil
}

// OptimizeFast implements llm.Client.
func (c *Client) OptimizeFast(ctx context.Context, input string) (string, error) {
	resp, err := c.generate(ctx, server.GenerateRequest{
		Action: server.ActionFast,
		Input:  input,
	})
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

// GenerateQuestions implements llm.Client.
func (c *Client) GenerateQuestions(ctx context.Context, input string) ([]llm.ClarificationQuestion, error) {
	resp, err := c.generate(ctx, server.GenerateRequest{
		Action: server.ActionClarifyQuestions,
		Input:  input,
	})
	if err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// SynthesizeFinal implements llm.Client.
func (c *Client) SynthesizeFinal(ctx context.Context, input string, pairs []prompt.QAPair) (string, error) {
	resp, err := c.generate(ctx, server.GenerateRequest{
		Action:  server.ActionClarifyFinal,
		Input:   input,
		QAPairs: pairs,
	})
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

// generate POSTs one request to /api/generate and decodes either the
// success body or the {message} error body.
func (c *Client) generate(ctx context.Context, reqBody server.GenerateRequest) (*server.GenerateResponse, error) {
	reqBody.APIKey = c.apiKey

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestMarshal, err)
	}

	endpointURL := c.BaseURL.ResolveReference(&url.URL{Path: "/api/generate"})

	log.Debug().Str("action", reqBody.Action).Str("url", endpointURL.String()).Msg("Sending proxy generate request")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL.String(), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestCreate, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrUpstreamCall, err)
	}
	defer resp.Body.Close()

	log.Debug().Int("status_code", resp.StatusCode).Str("action", reqBody.Action).Msg("Received proxy generate response")

	if resp.StatusCode != http.StatusOK {
		return nil, decodeFailure(resp)
	}

	var successResp server.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&successResp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResponseDecode, err)
	}
	return &successResp, nil
}

// decodeFailure turns a non-200 proxy response back into the adapter
// error taxonomy, carrying the proxy's message so the workflow displays
// the same wording a browser user would see.
func decodeFailure(resp *http.Response) error {
	message := ""
	var errResp server.ErrorResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil {
		message = errResp.Message
	}
	if message == "" {
		message = fmt.Sprintf("the proxy returned status %d", resp.StatusCode)
	}

	var underlying error
	switch resp.StatusCode {
	case http.StatusGatewayTimeout:
		underlying = llm.ErrUpstreamTimeout
	case http.StatusUnauthorized:
		underlying = ErrUnauthorized
	default:
		underlying = &llm.UpstreamHTTPError{
			Status: resp.StatusCode,
			Err:    ErrProxyError,
		}
	}

	return &llm.MessageError{Message: message, Err: underlying}
}
