package domain

// ScrapeOutcome is the ephemeral result of one pass through the pipeline for a
// single player. Outcomes are folded into job counters and discarded.
type ScrapeOutcome struct {
	PlayerID       string   `json:"player_id"`
	PlayerName     string   `json:"player_name"`
	URL            string   `json:"url"`
	Success        bool     `json:"success"`
	FieldsUpdated  []string `json:"fields_updated"`
	Error          string   `json:"error,omitempty"`
	Retries        int      `json:"retries"`
	WasRateLimited bool     `json:"was_rate_limited"`
}

// BatchSummary is returned to the caller of a process-next-batch invocation.
type BatchSummary struct {
	JobID           string  `json:"job_id"`
	Completed       bool    `json:"completed"`
	ProcessedCount  int     `json:"processed_count"`
	SuccessCount    int     `json:"success_count"`
	ErrorCount      int     `json:"error_count"`
	RateLimitCount  int     `json:"rate_limit_count"`
	ErrorRate       float64 `json:"error_rate"`
	SpeedMultiplier float64 `json:"speed_multiplier"`
	Progress        int     `json:"progress"`
}
