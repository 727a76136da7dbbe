package call

import "time"

// Call statuses. A call starts ringing and moves forward only:
// ringing -> accepted | rejected | missed, accepted -> ended.
const (
	StatusRinging  = "ringing"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusMissed   = "missed"
	StatusEnded    = "ended"
)

const (
	TypeAudio = "audio"
	TypeVideo = "video"
)

type Call struct {
	ID         string     `json:"id"`
	CallerID   string     `json:"callerId"`
	ReceiverID string     `json:"receiverId"`
	CallType   string     `json:"callType"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
	Duration   int        `json:"duration"`
}

// validNext enumerates the forward transitions of the state machine.
var validNext = map[string]map[string]bool{
	StatusRinging:  {StatusAccepted: true, StatusRejected: true, StatusMissed: true, StatusEnded: true},
	StatusAccepted: {StatusEnded: true},
}

// CanTransition reports whether a call may move from to next.
// Terminal states (rejected, missed, ended) allow nothing.
func CanTransition(from, next string) bool {
	return validNext[from][next]
}
