package models

import "time"

// DocumentFields are the fields the document validator extracts from a
// scanned ID document.
type DocumentFields struct {
	Name      string    `json:"name"`
	IDNumber  string    `json:"id_number"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the document was expired at now.
func (d DocumentFields) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}
