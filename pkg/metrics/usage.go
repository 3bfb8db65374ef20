package metrics

import "sync"

// TokenUsage captures LLM token counts used to satisfy a request.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// UsageRecorder sums token usage reported by concurrent LLM calls.
type UsageRecorder struct {
	mu    sync.Mutex
	total TokenUsage
	calls int
}

// Add records one call worth of usage.
func (r *UsageRecorder) Add(u TokenUsage) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total.PromptTokens += u.PromptTokens
	r.total.CompletionTokens += u.CompletionTokens
	r.total.TotalTokens += u.TotalTokens
	r.calls++
}

// Snapshot returns the accumulated usage and the number of recorded calls.
func (r *UsageRecorder) Snapshot() (TokenUsage, int) {
	if r == nil {
		return TokenUsage{}, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, r.calls
}
