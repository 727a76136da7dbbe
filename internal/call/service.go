package call

import (
	"context"
	"log"
	"sync"
	"time"
)

// Notifier delivers a structured lifecycle event to a user's active
// connection, if any. The ws hub implements it.
type Notifier interface {
	NotifyUser(userID, event string, payload any)
}

// Lifecycle event names on the wire.
const (
	EventIncomingCall = "incoming-call"
	EventCallUpdated  = "call-updated"
	EventCallEnded    = "call-ended"
)

// Service drives a call through its state machine and fans every
// transition out to both participants.
type Service struct {
	repo     *Repository
	notifier Notifier
	timeout  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewService(repo *Repository, notifier Notifier, missedTimeout time.Duration) *Service {
	if missedTimeout <= 0 {
		missedTimeout = 30 * time.Second
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		timeout:  missedTimeout,
		timers:   make(map[string]*time.Timer),
	}
}

// Start creates a ringing call, rings the receiver and arms the missed
// timer.
func (s *Service) Start(ctx context.Context, callerID, receiverID, callType string) (*Call, error) {
	c, err := s.repo.Create(ctx, callerID, receiverID, callType)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(c.ReceiverID, EventIncomingCall, c)
	s.armMissedTimer(c.ID)
	return c, nil
}

// Accept transitions ringing -> accepted and stamps answered_at.
// Returns (nil, nil) when the call is gone or already past ringing.
func (s *Service) Accept(ctx context.Context, callID string) (*Call, error) {
	updated, err := s.repo.SetAccepted(ctx, callID, time.Now().UTC())
	if err != nil || updated == nil {
		return nil, err
	}
	s.cancelMissedTimer(callID)
	s.notifyBoth(updated, EventCallUpdated)
	return updated, nil
}

// Decline transitions ringing -> rejected.
func (s *Service) Decline(ctx context.Context, callID string) (*Call, error) {
	updated, err := s.repo.SetRejected(ctx, callID)
	if err != nil || updated == nil {
		return nil, err
	}
	s.cancelMissedTimer(callID)
	s.notifyBoth(updated, EventCallUpdated)
	return updated, nil
}

// End closes the call. Duration is the whole seconds between answer and
// now; a call that was never answered ends with duration 0.
func (s *Service) End(ctx context.Context, callID string) (*Call, error) {
	c, err := s.repo.GetByID(ctx, callID)
	if err != nil || c == nil {
		return nil, err
	}

	endedAt := time.Now().UTC()
	duration := 0
	if c.AnsweredAt != nil {
		duration = int(endedAt.Sub(*c.AnsweredAt) / time.Second)
	}
	updated, err := s.repo.SetEnded(ctx, callID, endedAt, duration)
	if err != nil || updated == nil {
		return nil, err
	}
	s.cancelMissedTimer(callID)
	s.notifyBoth(updated, EventCallEnded)
	return updated, nil
}

// markMissed fires from the timer. The guarded UPDATE makes it a no-op
// when an accept/decline/end won the race.
func (s *Service) markMissed(callID string) {
	s.mu.Lock()
	delete(s.timers, callID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updated, err := s.repo.SetMissed(ctx, callID)
	if err != nil {
		log.Printf("❌ missed-call update failed for %s: %v", callID, err)
		return
	}
	if updated == nil {
		return
	}
	s.notifyBoth(updated, EventCallUpdated)
}

func (s *Service) armMissedTimer(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[callID] = time.AfterFunc(s.timeout, func() { s.markMissed(callID) })
}

// cancelMissedTimer stops the pending timer early. Purely an
// optimization: the conditional UPDATE already keeps a late firing from
// clobbering a terminal state.
func (s *Service) cancelMissedTimer(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[callID]; ok {
		t.Stop()
		delete(s.timers, callID)
	}
}

func (s *Service) notifyBoth(c *Call, event string) {
	s.notifier.NotifyUser(c.CallerID, event, c)
	s.notifier.NotifyUser(c.ReceiverID, event, c)
}
