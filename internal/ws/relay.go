package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"chat-relay/internal/call"
	"chat-relay/internal/message"
)

// Relay decodes inbound events and routes them to the right component:
// the hub for fan-out, the message repository for persistence, the call
// service for lifecycle transitions.
type Relay struct {
	hub      *Hub
	messages *message.Repository
	calls    *call.Service

	// EnforceOwnership gates the hardened policy: edits and deletes
	// must come from the message's sender, and register-user must match
	// the authenticated subject. Off by default for compatibility with
	// the deployed client.
	EnforceOwnership bool
}

func NewRelay(hub *Hub, messages *message.Repository, calls *call.Service) *Relay {
	return &Relay{hub: hub, messages: messages, calls: calls}
}

func (r *Relay) disconnect(c *Client) {
	if id := c.user(); id != "" {
		// Bound to this client: a stale disconnect never evicts a
		// newer registration for the same user.
		r.hub.Presence.Remove(id, c)
		log.Printf("🔌 Disconnected: %s", id)
	}
	r.hub.removeClient(c)
}

// dispatch handles one decoded envelope. Runs on the connection's read
// pump, so per-connection ordering is the arrival order.
func (r *Relay) dispatch(c *Client, env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch env.Event {
	case EvRegisterUser:
		var userID string
		if err := json.Unmarshal(env.Data, &userID); err != nil || userID == "" {
			return
		}
		if r.EnforceOwnership && c.authSubject != "" && userID != c.authSubject {
			log.Printf("⚠️ register-user %q refused for subject %q", userID, c.authSubject)
			return
		}
		c.setUser(userID)
		r.hub.Presence.Register(userID, c)
		log.Printf("✅ Registered %s", userID)

	case EvJoinRoom:
		var roomID string
		if err := json.Unmarshal(env.Data, &roomID); err != nil {
			return
		}
		r.hub.JoinRoom(c, roomID)

	case EvJoinRooms:
		var roomIDs []string
		if err := json.Unmarshal(env.Data, &roomIDs); err != nil {
			return
		}
		for _, roomID := range roomIDs {
			r.hub.JoinRoom(c, roomID)
		}

	case EvNewMessage:
		var p NewMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		r.handleNewMessage(ctx, c, p)

	case EvEditMessage:
		var p EditMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		r.handleEditMessage(ctx, c, p)

	case EvDeleteMessage:
		var p DeleteMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		r.handleDeleteMessage(ctx, c, p)

	case EvCallUser:
		var p CallUserPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		r.hub.NotifyUser(p.To, EvIncomingCall, map[string]any{
			"from":  p.From,
			"offer": p.Offer,
		})

	case EvAnswerCall:
		var p AnswerCallPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		r.hub.NotifyUser(p.To, EvCallAnswered, map[string]any{
			"answer": p.Answer,
		})

	case EvIceCandidate:
		var p IceCandidatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		r.hub.NotifyUser(p.To, EvIceCandidate, map[string]any{
			"candidate": p.Candidate,
		})

	case EvStartCall:
		var p StartCallPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		if _, err := r.calls.Start(ctx, p.CallerID, p.ReceiverID, p.CallType); err != nil {
			log.Printf("❌ start-call failed: %v", err)
		}

	case EvDeclineCall:
		var p DeclineCallPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		if _, err := r.calls.Decline(ctx, p.CallID); err != nil {
			log.Printf("❌ decline-call failed: %v", err)
		}

	case EvEndCall:
		var p EndCallPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		if _, err := r.calls.End(ctx, p.CallID); err != nil {
			log.Printf("❌ end-call failed: %v", err)
		}

	default:
		log.Printf("⚠️ unknown event %q from %q", env.Event, c.user())
	}
}

// handleNewMessage persists the message, then fans it out: room
// messages go to the room's subscribers, direct messages echo to the
// sender and reach the receiver when online. Failures come back to the
// sender as a message-failed ack instead of vanishing.
func (r *Relay) handleNewMessage(ctx context.Context, c *Client, p NewMessagePayload) {
	msg := &message.Message{
		SenderID:   p.SenderID,
		ReceiverID: p.ReceiverID,
		RoomID:     p.RoomID,
		Text:       p.Text,
		Image:      p.Image,
		Audio:      p.Audio,
		Video:      p.Video,
	}
	if p.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			msg.CreatedAt = t.UTC()
		}
	}

	if err := msg.ValidateDestination(); err != nil {
		c.Send(EvMessageFailed, FailurePayload{Event: EvNewMessage, Reason: err.Error()})
		return
	}

	saved, err := r.messages.Save(ctx, msg)
	if err != nil {
		log.Printf("❌ Error saving message: %v", err)
		c.Send(EvMessageFailed, FailurePayload{Event: EvNewMessage, Reason: "failed to save message"})
		return
	}

	if saved.RoomID != "" {
		r.hub.BroadcastRoom(saved.RoomID, EvRoomMessage, saved)
		return
	}

	// Echo the authoritative saved record to the sender first, then the
	// receiver if they are online. Offline receivers read it from
	// history later; no offline notification is generated.
	c.Send(EvPrivateMessage, saved)
	if peer := r.hub.Presence.Lookup(saved.ReceiverID); peer != nil {
		peer.Send(EvPrivateMessage, saved)
	}
}

func (r *Relay) handleEditMessage(ctx context.Context, c *Client, p EditMessagePayload) {
	if r.EnforceOwnership && !r.ownsMessage(ctx, c, p.MessageID) {
		c.Send(EvMessageFailed, FailurePayload{Event: EvEditMessage, Reason: "not the sender"})
		return
	}

	updated, err := r.messages.UpdateText(ctx, p.MessageID, p.NewText)
	if err != nil {
		log.Printf("❌ Error editing message: %v", err)
		return
	}
	if updated == nil {
		// Unknown id: no broadcast.
		return
	}
	if err := r.hub.PublishGlobal(ctx, EvMessageEdited, updated); err != nil {
		log.Printf("❌ Error broadcasting edit: %v", err)
	}
}

func (r *Relay) handleDeleteMessage(ctx context.Context, c *Client, p DeleteMessagePayload) {
	if r.EnforceOwnership && !r.ownsMessage(ctx, c, p.MessageID) {
		c.Send(EvMessageFailed, FailurePayload{Event: EvDeleteMessage, Reason: "not the sender"})
		return
	}

	existed, err := r.messages.Delete(ctx, p.MessageID)
	if err != nil {
		log.Printf("❌ Error deleting message: %v", err)
		return
	}
	if !existed {
		return
	}
	payload := map[string]string{"messageId": p.MessageID}
	if err := r.hub.PublishGlobal(ctx, EvMessageDeleted, payload); err != nil {
		log.Printf("❌ Error broadcasting delete: %v", err)
	}
}

func (r *Relay) ownsMessage(ctx context.Context, c *Client, messageID string) bool {
	msg, err := r.messages.GetByID(ctx, messageID)
	if err != nil || msg == nil {
		// Let the normal not-found path produce the no-op.
		return true
	}
	return msg.SenderID == c.user()
}
