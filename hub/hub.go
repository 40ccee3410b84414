package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// kích thước hàng đợi gửi của mỗi subscriber; đầy thì drop (best-effort)
const sendBufferSize = 256

// Subscriber là một phiên đang theo dõi một phòng: bản ghi
// (connectionId, roomId, userId) + hàng đợi nhận có đệm.
type Subscriber struct {
	ID     string
	RoomID uint
	UserID uint

	send   chan []byte
	closed bool // bảo vệ bởi mutex của Hub
}

// C trả về kênh nhận sự kiện của subscriber.
func (s *Subscriber) C() <-chan []byte {
	return s.send
}

// Hub giữ danh sách subscriber theo phòng và fan-out sự kiện đã commit.
// Đảm bảo: trong một phòng, mọi subscriber nhận sự kiện đúng thứ tự
// Publish được gọi; subscriber chậm bị drop tin chứ không chặn phòng.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Subscriber]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uint]map[*Subscriber]bool),
	}
}

// Subscribe đăng ký một phiên mới vào phòng.
func (h *Hub) Subscribe(roomID, userID uint) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		RoomID: roomID,
		UserID: userID,
		send:   make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Subscriber]bool)
	}
	h.rooms[roomID][sub] = true
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"connection_id": sub.ID,
		"room_id":       roomID,
		"user_id":       userID,
	}).Info("Subscriber đăng ký vào phòng")
	return sub
}

// Unsubscribe gỡ phiên khỏi phòng và đóng kênh nhận của nó.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if subs, ok := h.rooms[sub.RoomID]; ok {
		if _, exists := subs[sub]; exists {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.rooms, sub.RoomID)
			}
		}
	}
	// Đóng kênh ngay dưới Lock: Publish gửi dưới RLock nên không thể
	// chen giữa lúc đóng, tránh send trên kênh đã đóng.
	if !sub.closed {
		sub.closed = true
		close(sub.send)
	}
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"connection_id": sub.ID,
		"room_id":       sub.RoomID,
		"user_id":       sub.UserID,
	}).Info("Subscriber rời phòng")
}

// Publish phát payload cho mọi subscriber của phòng. Gửi không chặn:
// hàng đợi của subscriber nào đầy thì subscriber đó mất tin này
// (sẽ đọc lại lịch sử khi kết nối lại).
func (h *Hub) Publish(roomID uint, payload []byte) {
	// Giữ RLock suốt lượt gửi: Unsubscribe đóng kênh dưới Lock nên phải
	// chờ, không bao giờ có send trên kênh đã đóng. Send vẫn non-blocking
	// nên RLock chỉ bị giữ trong chốc lát.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.rooms[roomID] {
		if sub.closed {
			continue
		}
		select {
		case sub.send <- payload:
		default:
			logrus.WithFields(logrus.Fields{
				"connection_id": sub.ID,
				"room_id":       roomID,
				"user_id":       sub.UserID,
			}).Warn("Hàng đợi subscriber đầy, bỏ qua tin nhắn")
		}
	}
}

// SubscriberCount trả về số phiên đang theo dõi phòng.
func (h *Hub) SubscriberCount(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
