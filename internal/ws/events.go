package ws

import "encoding/json"

// Inbound event names. These are the wire contract the mobile client
// speaks; renaming any of them breaks deployed apps.
const (
	EvRegisterUser  = "register-user"
	EvJoinRoom      = "join-room"
	EvJoinRooms     = "join-rooms"
	EvNewMessage    = "new-message"
	EvEditMessage   = "edit-message"
	EvDeleteMessage = "delete-message"
	EvCallUser      = "call-user"
	EvAnswerCall    = "answer-call"
	EvIceCandidate  = "ice-candidate"
	EvStartCall     = "start-call"
	EvDeclineCall   = "decline-call"
	EvEndCall       = "end-call"
)

// Outbound event names.
const (
	EvRoomMessage    = "room-message"
	EvPrivateMessage = "private-message"
	EvMessageEdited  = "message-edited"
	EvMessageDeleted = "message-deleted"
	EvIncomingCall   = "incoming-call"
	EvCallAnswered   = "call-answered"
	EvMessageFailed  = "message-failed"
)

// Envelope frames every event in both directions:
// {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutEnvelope is the outbound counterpart with an already-typed payload.
type OutEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Typed payloads, one per inbound event. Decoded at the boundary before
// anything else looks at the data.

type NewMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId,omitempty"`
	RoomID     string `json:"roomId,omitempty"`
	Text       string `json:"text,omitempty"`
	Image      string `json:"image,omitempty"`
	Audio      string `json:"audio,omitempty"`
	Video      string `json:"video,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

type EditMessagePayload struct {
	MessageID string `json:"messageId"`
	NewText   string `json:"newText"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId"`
}

type CallUserPayload struct {
	To    string          `json:"to"`
	Offer json.RawMessage `json:"offer"`
	From  string          `json:"from"`
}

type AnswerCallPayload struct {
	To     string          `json:"to"`
	Answer json.RawMessage `json:"answer"`
}

type IceCandidatePayload struct {
	To        string          `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

type StartCallPayload struct {
	CallerID   string `json:"callerId"`
	ReceiverID string `json:"receiverId"`
	CallType   string `json:"callType"`
}

type DeclineCallPayload struct {
	CallID string `json:"callId"`
	UserID string `json:"userId"`
}

type EndCallPayload struct {
	CallID string `json:"callId"`
	UserID string `json:"userId"`
}

// FailurePayload rides on message-failed acks back to the sender.
type FailurePayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}
