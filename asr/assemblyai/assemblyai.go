// Package assemblyai implements asr.Provider against the AssemblyAI v2
// transcript API.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skillsenselab/meetscribe/asr"
	"github.com/skillsenselab/meetscribe/provider"
)

const (
	// ProviderName is the registered name for the AssemblyAI provider.
	ProviderName = "assemblyai"

	defaultBaseURL = "https://api.assemblyai.com"
	defaultTimeout = 30 * time.Second
)

// Config holds configuration for the AssemblyAI provider.
type Config struct {
	BaseURL string        `json:"base_url" yaml:"base_url"`
	APIKey  string        `json:"api_key" yaml:"api_key"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Provider implements asr.Provider using the AssemblyAI HTTP API.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new AssemblyAI recognition provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Factory returns a provider.Factory that creates AssemblyAI Provider
// instances from a generic config map.
func Factory() provider.Factory[asr.Provider] {
	return func(cfg map[string]any) (asr.Provider, error) {
		ac := Config{}
		if v, ok := cfg["base_url"].(string); ok {
			ac.BaseURL = v
		}
		if v, ok := cfg["api_key"].(string); ok {
			ac.APIKey = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			ac.Timeout = v
		}
		if ac.APIKey == "" {
			return nil, fmt.Errorf("assemblyai: api_key is required")
		}
		return NewProvider(ac), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the AssemblyAI API is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/v2/transcript?limit=1", http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", p.cfg.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Submit creates a transcript job for the given audio URL.
func (p *Provider) Submit(ctx context.Context, audioURL string, opts asr.SubmitOptions) (string, error) {
	body := submitRequest{
		AudioURL:          audioURL,
		SpeakerLabels:     opts.SpeakerLabels,
		LanguageDetection: opts.LanguageDetection,
		WordBoost:         opts.WordBoost,
	}
	if opts.LanguageConfidenceThreshold > 0 {
		body.LanguageConfidenceThreshold = opts.LanguageConfidenceThreshold
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	var resp transcriptPayload
	if err := p.do(ctx, http.MethodPost, "/v2/transcript", payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Poll fetches the current state of a transcript job.
func (p *Provider) Poll(ctx context.Context, jobID string) (*asr.Result, error) {
	var resp transcriptPayload
	if err := p.do(ctx, http.MethodGet, "/v2/transcript/"+jobID, nil, &resp); err != nil {
		return nil, err
	}
	return toResult(&resp), nil
}

func (p *Provider) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", p.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("assemblyai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("assemblyai error (status %d): %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode assemblyai response: %w", err)
	}
	return nil
}

// --- internal AssemblyAI API types ---

type submitRequest struct {
	AudioURL                    string   `json:"audio_url"`
	SpeakerLabels               bool     `json:"speaker_labels"`
	LanguageDetection           bool     `json:"language_detection"`
	LanguageConfidenceThreshold float64  `json:"language_confidence_threshold,omitempty"`
	WordBoost                   []string `json:"word_boost,omitempty"`
}

type transcriptPayload struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Text          string         `json:"text"`
	Utterances    []aaiUtterance `json:"utterances"`
	Words         []aaiWord      `json:"words"`
	LanguageCode  string         `json:"language_code"`
	Confidence    float64        `json:"confidence"`
	AudioDuration float64        `json:"audio_duration"`
	Error         string         `json:"error"`
}

type aaiUtterance struct {
	Speaker    string    `json:"speaker"`
	Text       string    `json:"text"`
	Start      int64     `json:"start"`
	End        int64     `json:"end"`
	Confidence float64   `json:"confidence"`
	Words      []aaiWord `json:"words"`
}

type aaiWord struct {
	Text       string  `json:"text"`
	Speaker    string  `json:"speaker"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
}

func toResult(resp *transcriptPayload) *asr.Result {
	result := &asr.Result{
		ID:               resp.ID,
		Status:           toStatus(resp.Status),
		Text:             resp.Text,
		LanguageCode:     resp.LanguageCode,
		Confidence:       resp.Confidence,
		AudioDurationSec: resp.AudioDuration,
		Error:            resp.Error,
	}

	if len(resp.Utterances) > 0 {
		result.Utterances = make([]asr.Utterance, len(resp.Utterances))
		for i, u := range resp.Utterances {
			result.Utterances[i] = asr.Utterance{
				Speaker:    u.Speaker,
				Text:       u.Text,
				StartMs:    u.Start,
				EndMs:      u.End,
				Confidence: u.Confidence,
				Words:      toWords(u.Words),
			}
		}
		return result
	}

	result.Words = toWords(resp.Words)
	return result
}

func toWords(words []aaiWord) []asr.Word {
	if len(words) == 0 {
		return nil
	}
	out := make([]asr.Word, len(words))
	for i, w := range words {
		out[i] = asr.Word{
			Text:       w.Text,
			Speaker:    w.Speaker,
			StartMs:    w.Start,
			EndMs:      w.End,
			Confidence: w.Confidence,
		}
	}
	return out
}

func toStatus(s string) asr.Status {
	switch s {
	case "completed":
		return asr.StatusCompleted
	case "error":
		return asr.StatusError
	case "processing":
		return asr.StatusProcessing
	default:
		return asr.StatusQueued
	}
}
