package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/vnkhanh/bookclub-server/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS đã xử lý ở tầng HTTP; origin websocket không chặn thêm
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeDiscussionWS nâng cấp kết nối lên WebSocket và đăng ký phiên vào
// feed broadcast của phòng. Client gửi phong bì
// {"destination":"chat|enter|leave","content":"..."}; mọi sự kiện của phòng
// được đẩy về dạng MessageResponse. Ngắt kết nối chỉ hủy subscription.
func ServeDiscussionWS(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	// Kiểm tra phòng và người dùng trước khi nâng cấp
	if _, err := Engine.RoomDetail(roomID); err != nil {
		fail(c, err)
		return
	}
	if _, err := Engine.LookupUser(userID); err != nil {
		fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("Không nâng cấp được kết nối WebSocket")
		return
	}

	sub := Hub.Subscribe(roomID, userID)
	client := hub.NewClient(Hub, conn, sub, Engine)
	client.Run()
}
