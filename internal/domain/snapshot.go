package domain

import "time"

// Snapshot is the review collection loaded for one admin, kept between
// requests so filtering and paging never refetch.
type Snapshot struct {
	Owner    string    `json:"owner"`
	Reviews  []Review  `json:"reviews"`
	LoadedAt time.Time `json:"loaded_at"`
	Notice   *Notice   `json:"notice,omitempty"`
}

// Notice is a short-lived message shown after a successful action.
type Notice struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActiveNotice returns the notice if it has not expired at now.
func (s *Snapshot) ActiveNotice(now time.Time) *Notice {
	if s.Notice == nil || !now.Before(s.Notice.ExpiresAt) {
		return nil
	}
	return s.Notice
}
