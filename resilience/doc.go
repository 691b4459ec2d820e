// Package resilience provides fault-tolerance patterns for calls to
// external providers.
//
// This package includes:
//   - CircuitBreaker: Prevents cascading failures by failing fast
//   - Retry: Retries failed operations with exponential backoff
//
// The patterns compose; a provider call can sit behind both:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("ollama"))
//	err := cb.Execute(func() error {
//	    _, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*Result, error) {
//	        return client.Poll(ctx, jobID)
//	    })
//	    return err
//	})
package resilience
