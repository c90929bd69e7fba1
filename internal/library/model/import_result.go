package model

// ImportResult represents the result of a batch import
type ImportResult struct {
	SuccessCount int              `json:"success_count"`
	FailedCount  int              `json:"failed_count"`
	Imported     []*Book          `json:"imported,omitempty"`
	FailedBooks  []FailedBookInfo `json:"failed_books,omitempty"`
}

// FailedBookInfo contains information about a record that was not imported
type FailedBookInfo struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}
