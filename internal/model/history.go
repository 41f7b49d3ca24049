package model

import "time"

// OrderCommit is one entry of the server-authoritative audit trail for an
// order. The client never mutates it.
type OrderCommit struct {
	Hash      string         `json:"hash"`
	Action    string         `json:"action"`
	Message   string         `json:"message"`
	UserID    string         `json:"user_id"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// OrderVersionHistory is the audit trail of a single order, possibly
// truncated server-side: Showing < TotalCommits signals truncation.
type OrderVersionHistory struct {
	OrderID      string        `json:"order_id"`
	History      []OrderCommit `json:"history"`
	TotalCommits int           `json:"total_commits"`
	Showing      int           `json:"showing"`
}

func (h *OrderVersionHistory) Truncated() bool {
	return h.Showing < h.TotalCommits
}
