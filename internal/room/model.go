package room

import "time"

// Room is a named group-messaging channel. The relay only reads rooms;
// they are created through the REST surface.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RoomPic   string    `json:"roomPic"`
	Members   []string  `json:"members,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
