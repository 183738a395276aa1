package models

// Plant is a backend-owned record. Only UserID, Type, and Name are consumed
// by the alert pipeline; other backend fields are treated as opaque.
type Plant struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

// User is a backend-owned record fetched on demand per outbound SMS.
type User struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	PhoneNumber *string `json:"phone_number"`
}

// HasPhone reports whether the user has a non-empty phone number on file.
func (u User) HasPhone() bool {
	return u.PhoneNumber != nil && *u.PhoneNumber != ""
}
