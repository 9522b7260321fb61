package models

// Penalty is one penalty rate row on the results screen (overtime,
// weekend, public holiday and so on).
type Penalty struct {
	Name string `json:"name"`
	Rate string `json:"rate"`
}

// Entry is one exported dataset record: the pay rates for a single
// combination of answers.
type Entry struct {
	Award          string            `json:"award"`
	Classification string            `json:"classification"`
	Age            string            `json:"age"`
	HourlyRate     string            `json:"hourly_rate"`
	Penalties      []Penalty         `json:"penalties"`
	Choices        map[string]string `json:"choices"`

	// RatesMarkdown is the penalty table rendered as Markdown, kept for
	// manual review of odd pages.
	RatesMarkdown string `json:"rates_markdown,omitempty"`

	CapturedAt int64 `json:"captured_at"` // unix timestamp
}
