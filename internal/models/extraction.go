package models

// Extraction is the result of one URL extraction, capped by the caller's tier
type Extraction struct {
	Tier      Tier     `json:"tier"`
	Limit     int      `json:"limit"`
	Found     int      `json:"found"`
	Truncated bool     `json:"truncated"`
	URLs      []string `json:"urls"`
}
