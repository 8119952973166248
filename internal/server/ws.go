package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024 * 1024 // 1MB
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var streamClients atomic.Int64

// wsError is the error frame sent back on a failed quote. The session
// stays open; only malformed frames close it.
type wsError struct {
	Error string `json:"error"`
}

// handleWebSocket runs a long-lived quoting session. Each received
// frame is a QuoteRequest, each reply a QuoteResponse or error frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s.metrics.SetStreamClients(int(streamClients.Add(1)))
	defer func() {
		s.metrics.SetStreamClients(int(streamClients.Add(-1)))
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// The connection allows one writer at a time; the ping goroutine
	// and the reply path share this lock.
	var writeMu sync.Mutex

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				writeMu.Lock()
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				err := conn.WriteMessage(websocket.PingMessage, nil)
				writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	log.Info().Str("remote", r.RemoteAddr).Msg("Quote session opened")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("Quote session read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var req QuoteRequest
		if err := json.Unmarshal(message, &req); err != nil {
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteJSON(wsError{Error: "parsing request: " + err.Error()})
			writeMu.Unlock()
			return
		}

		var reply interface{}
		resp, err := s.evaluate(r.Context(), &req)
		if err != nil {
			s.metrics.RecordQuoteError(errorReason(err))
			reply = wsError{Error: err.Error()}
		} else {
			s.metrics.RecordStreamQuote()
			reply = resp
		}

		writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err = conn.WriteJSON(reply)
		writeMu.Unlock()
		if err != nil {
			log.Debug().Err(err).Msg("Quote session write failed")
			return
		}
	}
}
