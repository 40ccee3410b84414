package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/vnkhanh/bookclub-server/engine"
	"github.com/vnkhanh/bookclub-server/models"
)

const (
	// Thời gian tối đa để ghi một tin ra peer
	writeWait = 10 * time.Second

	// Thời gian chờ pong kế tiếp từ peer
	pongWait = 60 * time.Second

	// Chu kỳ gửi ping, phải nhỏ hơn pongWait
	pingPeriod = (pongWait * 9) / 10

	// Kích thước tin nhắn tối đa nhận từ peer
	maxMessageSize = 4096
)

// MessageSink là đường ghi từ gateway vào Room Engine.
type MessageSink interface {
	PostMessage(roomID, userID uint, msgType, content string) (*engine.MessageResponse, error)
}

// inboundFrame là phong bì client gửi lên, destination tương ứng các
// địa chỉ gửi /app/discussion/{roomId}, .../enter, .../leave.
type inboundFrame struct {
	Destination string `json:"destination"` // chat | enter | leave
	Content     string `json:"content"`
}

// Client gắn một kết nối WebSocket với một subscription trên Hub
// và chuyển tiếp tin nhắn vào engine. Ngắt kết nối chỉ hủy subscription,
// KHÔNG sinh thao tác rời phòng (leave là hành động client gọi chủ động).
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	sub  *Subscriber
	sink MessageSink
}

func NewClient(h *Hub, conn *websocket.Conn, sub *Subscriber, sink MessageSink) *Client {
	return &Client{hub: h, conn: conn, sub: sub, sink: sink}
}

// Run chạy hai goroutine đọc/ghi của client.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// readPump đọc phong bì từ WebSocket và chuyển vào engine.
func (c *Client) readPump() {
	logCtx := logrus.WithFields(logrus.Fields{
		"connection_id": c.sub.ID,
		"room_id":       c.sub.RoomID,
		"user_id":       c.sub.UserID,
	})
	defer func() {
		c.hub.Unsubscribe(c.sub)
		c.conn.Close()
		logCtx.Info("readPump kết thúc, đã hủy subscription")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket đóng bất thường")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			logCtx.WithError(err).Warn("Phong bì tin nhắn không hợp lệ, bỏ qua")
			continue
		}

		var msgType string
		switch frame.Destination {
		case "chat", "":
			msgType = models.MessageChat
		case "enter":
			msgType = models.MessageEnter
		case "leave":
			msgType = models.MessageLeave
		default:
			logCtx.WithField("destination", frame.Destination).Warn("Destination không hợp lệ, bỏ qua")
			continue
		}

		// Tin đã commit sẽ quay lại client qua broadcast của Hub
		if _, err := c.sink.PostMessage(c.sub.RoomID, c.sub.UserID, msgType, frame.Content); err != nil {
			logCtx.WithError(err).Warn("Không ghi được tin nhắn vào phòng")
		}
	}
}

// writePump đẩy sự kiện từ hàng đợi subscriber ra WebSocket, kèm ping định kỳ.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.sub.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub đã đóng kênh (unsubscribe)
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
