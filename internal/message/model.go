package message

import (
	"errors"
	"time"
)

// ErrBadDestination rejects a message that names both a room and a peer,
// or neither. Exactly one must be set.
var ErrBadDestination = errors.New("message must target exactly one of roomId or receiverId")

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId,omitempty"`
	RoomID     string    `json:"roomId,omitempty"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Audio      string    `json:"audio,omitempty"`
	Video      string    `json:"video,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`

	// SenderName is filled by the history endpoints, never stored.
	SenderName string `json:"senderName,omitempty"`
	RoomName   string `json:"roomName,omitempty"`
}

// ValidateDestination enforces the roomId XOR receiverId invariant.
func (m *Message) ValidateDestination() error {
	if (m.RoomID == "") == (m.ReceiverID == "") {
		return ErrBadDestination
	}
	return nil
}
