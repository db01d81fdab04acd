package domain

type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type RuleGroup struct {
	Name         string `json:"name"`
	KeywordCount int    `json:"keyword_count"`
}

// RulesSummary describes the keyword routing rules loaded by the backend.
type RulesSummary struct {
	TotalRules int         `json:"total_rules"`
	Groups     []RuleGroup `json:"groups"`
}

type DocumentPreview struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type RefreshResult struct {
	Message string `json:"message"`
}
