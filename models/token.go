package models

import "time"

// Token holds the structure of a document in the tokens collection
type Token struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
	// Expires is the absolute expiry in Unix milliseconds
	Expires int64 `json:"expires"`
}

// ExpiresAt returns Expires as a time.Time
func (t Token) ExpiresAt() time.Time {
	return time.UnixMilli(t.Expires)
}

// ValidAt reports whether the token is still alive at now
func (t Token) ValidAt(now time.Time) bool {
	return t.Expires > now.UnixMilli()
}
