package websocket

import (
	"net/http"
	"strconv"

	"nardeboun-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// mobile clients send no Origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleContentUpdates upgrades to the content change feed; ?grade_id= narrows it
func HandleContentUpdates(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var gradeID *int64
		if raw := r.URL.Query().Get("grade_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "grade_id must be a positive integer", http.StatusBadRequest)
				return
			}
			gradeID = &id
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:      uuid.New().String(),
			GradeID: gradeID,
			Send:    make(chan []byte, 256),
			Hub:     hub,
		}
		wsConn := NewConnection(conn, client)
		client.Conn = wsConn

		if !hub.Register(client) {
			conn.Close()
			return
		}

		welcome := &BroadcastMessage{
			Type: MessageTypeConnected,
			Payload: map[string]interface{}{
				"client_id": client.ID,
				"grade_id":  gradeID,
			},
		}
		client.Send <- welcome.ToJSON()

		logger.Info("websocket client connected", zap.String("client_id", client.ID))

		go wsConn.WritePump()
		go wsConn.ReadPump()
	}
}
