package main

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

const (
	WSURL     = "ws://localhost:8080/ws"
	PairCount = 250 // pairs of users chatting with each other
	MsgCount  = 20  // messages per user
)

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	log.Printf("🔥 STARTING STRESS TEST: %d users, %d messages each...", PairCount*2, MsgCount)
	var wg sync.WaitGroup

	for i := 0; i < PairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(secret, pairID)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runPair(secret string, pairID int) {
	userA := fmt.Sprintf("u_%d_a", pairID)
	userB := fmt.Sprintf("u_%d_b", pairID)

	var wsWg sync.WaitGroup
	wsWg.Add(2)
	go spamChat(&wsWg, secret, userA, userB)
	go spamChat(&wsWg, secret, userB, userA)
	wsWg.Wait()
}

func spamChat(wg *sync.WaitGroup, secret, me, peer string) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(WSURL+"?token="+mintToken(secret, me), nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", me, err)
		return
	}
	defer conn.Close()

	// Drain inbound frames so the server's send buffer never fills.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(envelope{Event: "register-user", Data: me}); err != nil {
		log.Printf("❌ Register Fail [%s]: %v", me, err)
		return
	}

	for i := 0; i < MsgCount; i++ {
		msg := envelope{Event: "new-message", Data: map[string]string{
			"senderId":   me,
			"receiverId": peer,
			"text":       fmt.Sprintf("LoadTest Msg %d from %s", i, me),
		}}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("❌ Send Fail [%s]: %v", me, err)
			break
		}
		// Small sleep to prevent instant localhost bottleneck
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", me, MsgCount)
}

func mintToken(secret, userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	ss, err := token.SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("❌ Token mint failed: %v", err)
	}
	return ss
}
