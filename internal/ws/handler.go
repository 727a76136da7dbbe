package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"chat-relay/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The mobile client connects from an app webview with no stable
	// origin. Lock this down if a browser frontend ever appears.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and starts the connection's pumps.
func (r *Relay) ServeWs(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := newClient(r, conn)
	client.authSubject = middleware.UserID(req.Context())
	r.hub.addClient(client)
	log.Printf("⚡ New socket connected for subject %q", client.authSubject)

	go client.writePump()
	go client.readPump()
}
