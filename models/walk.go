package models

// WalkRequest is the payload for POST /api/v1/walks.
type WalkRequest struct {
	// Award is the award code to walk, as listed by GET /api/v1/awards. Required.
	Award string `json:"award" binding:"required"`

	// MaxCombinations stops the walk early once this many entries have been
	// captured. 0 means no limit.
	MaxCombinations int `json:"max_combinations,omitempty" binding:"omitempty,min=1"`

	// Stealth enables anti-bot-detection evasions. Default: true.
	Stealth *bool `json:"stealth,omitempty"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *WalkRequest) Defaults() {
	if r.Stealth == nil {
		t := true
		r.Stealth = &t
	}
}

// WalkResponse is the immediate response for POST /api/v1/walks.
type WalkResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// WalkStatusResponse is the response for GET /api/v1/walks/:id.
type WalkStatusResponse struct {
	ID        string       `json:"id"`
	Award     string       `json:"award"`
	Status    string       `json:"status"`
	Completed int          `json:"completed"`
	Failures  int          `json:"failures"`
	Entries   []*Entry     `json:"entries,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// Job statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusPartial    = "partial"
	StatusFailed     = "failed"
)

// AwardsResponse is the response for GET /api/v1/awards.
type AwardsResponse struct {
	Success     bool         `json:"success"`
	Awards      []string     `json:"awards"`
	CacheStatus string       `json:"cache_status,omitempty"`
	Error       *ErrorDetail `json:"error,omitempty"`
}
