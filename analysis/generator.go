// Package analysis drives the two-stage generation process: structured
// extraction of a circular's text, then gap comparison against the
// company policy corpus. The generation engine is a nondeterministic
// black box behind the Generator interface; its output is rejected
// when it breaks the declared schemas.
package analysis

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"rbitracker/types"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// Generator is the capability interface over the text-completion
// service. Implementations take a prompt and return raw text with no
// structured-output guarantee.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const generationTimeout = 120 * time.Second

// CohereGenerator implements Generator with the Cohere chat API.
type CohereGenerator struct {
	client *cohereclient.Client
	model  string
}

// NewCohereGenerator builds a generator for the given API key and
// model. An empty model selects a current default.
func NewCohereGenerator(apiKey, model string) *CohereGenerator {
	if model == "" {
		model = "command-r-plus"
	}
	// Force HTTP/1.1 to avoid HTTP/2 protocol errors seen against the
	// Cohere endpoint.
	httpClient := &http.Client{
		Timeout: generationTimeout,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereGenerator{client: client, model: model}
}

// Complete sends the prompt as a single chat turn and returns the
// response text. Transport and engine errors surface as
// types.ErrGenerationFailure.
func (g *CohereGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	resp, err := g.client.Chat(ctx, &cohere.ChatRequest{
		Message: prompt,
		Model:   &g.model,
	})
	if err != nil {
		return "", fmt.Errorf("%w: cohere chat: %v", types.ErrGenerationFailure, err)
	}
	if resp == nil || resp.Text == "" {
		return "", fmt.Errorf("%w: cohere chat returned empty response", types.ErrGenerationFailure)
	}
	return resp.Text, nil
}
