package user

import "time"

// User is a chat profile keyed by the external auth provider's subject.
// Profiles are created on first save and never hard-deleted.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Status      string    `json:"status"`
	ProfilePic  string    `json:"profilePic"`
	PhoneNumber string    `json:"phoneNumber"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProfileRequest is the body of a profile save. Empty fields keep their
// previous value on update.
type ProfileRequest struct {
	Username    string `json:"username"`
	Status      string `json:"status"`
	ProfilePic  string `json:"profilePic"`
	PhoneNumber string `json:"phoneNumber"`
}
