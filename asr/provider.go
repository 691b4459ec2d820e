// Package asr defines the speech-recognition provider interface and the raw
// payload types returned by recognition backends. Provider-specific field
// names never escape this boundary; downstream code consumes the canonical
// transcript model built by the normalizer.
package asr

import (
	"context"

	"github.com/skillsenselab/meetscribe/provider"
)

// Provider is the interface that speech-recognition backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Submit sends audio for recognition and returns the provider job id.
	Submit(ctx context.Context, audioURL string, opts SubmitOptions) (string, error)

	// Poll fetches the current state of a recognition job. Callers poll
	// until Result.Status is terminal.
	Poll(ctx context.Context, jobID string) (*Result, error)
}
