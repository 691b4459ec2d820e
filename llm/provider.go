// Package llm defines the text-generation provider interface used for
// model-based transcript rewrites. Rewrites are synchronous request/response;
// no provider-side retries are assumed.
package llm

import (
	"context"

	"github.com/skillsenselab/meetscribe/provider"
)

// Provider is the interface that text-generation backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
