package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveWatch upgrades the connection and streams view snapshots for a game
// until the client disconnects. Host screens use this instead of polling
// the roster while the waiting room fills up.
func (h *Handler) serveWatch(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		http.Error(w, "missing gameId", http.StatusBadRequest)
		return
	}

	updates, cancel, err := h.service.Watch(gameID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)
		for view := range updates {
			if err := conn.WriteJSON(view); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// The read loop only detects disconnects; watchers send nothing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	<-done
}
