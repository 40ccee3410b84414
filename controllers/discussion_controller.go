package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vnkhanh/bookclub-server/engine"
	"github.com/vnkhanh/bookclub-server/hub"
)

var (
	// Engine và Hub được gắn từ main qua Setup trước khi đăng ký route
	Engine *engine.RoomEngine
	Hub    *hub.Hub
)

func Setup(e *engine.RoomEngine, h *hub.Hub) {
	Engine = e
	Hub = h
}

// fail ánh xạ lớp lỗi của engine sang mã HTTP.
func fail(c *gin.Context, err error) {
	switch {
	case engine.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case engine.IsConflict(err), engine.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case engine.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": err.Error()})
	default:
		logrus.WithError(err).Error("Lỗi không mong đợi từ engine")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Đã xảy ra lỗi, vui lòng thử lại sau"})
	}
}

func parseRoomID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("roomId"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": engine.ErrRoomNotFound.Error()})
		return 0, false
	}
	return uint(id), true
}

func parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Query("userId"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "userId không hợp lệ"})
		return 0, false
	}
	return uint(id), true
}

// CreateRoom tạo phòng thảo luận, chủ phòng tự động tham gia.
func CreateRoom(c *gin.Context) {
	var req engine.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Dữ liệu không hợp lệ"})
		return
	}

	room, err := Engine.CreateRoom(req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tạo phòng thảo luận thành công",
		"data":    room,
	})
}

// GetActiveRooms: phòng đang chờ + đang thảo luận
func GetActiveRooms(c *gin.Context) {
	rooms, err := Engine.ActiveRooms()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(rooms), "data": rooms})
}

// GetInProgressRooms: chỉ phòng đang thảo luận
func GetInProgressRooms(c *gin.Context) {
	rooms, err := Engine.InProgressRooms()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(rooms), "data": rooms})
}

// GetWaitingRooms: chỉ phòng đang chờ
func GetWaitingRooms(c *gin.Context) {
	rooms, err := Engine.WaitingRooms()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(rooms), "data": rooms})
}

// GetAvailableRooms: phòng còn chỗ trống
func GetAvailableRooms(c *gin.Context) {
	rooms, err := Engine.AvailableRooms()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(rooms), "data": rooms})
}

// GetMyRooms: phòng người dùng đang tham gia
func GetMyRooms(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	rooms, err := Engine.MyRooms(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(rooms), "data": rooms})
}

// GetRoomDetail: chi tiết một phòng
func GetRoomDetail(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	room, err := Engine.RoomDetail(roomID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": room})
}

// JoinRoom: vào phòng thảo luận
func JoinRoom(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	room, err := Engine.JoinRoom(roomID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Đã vào phòng thảo luận",
		"data":    room,
	})
}

// LeaveRoom: rời phòng thảo luận
func LeaveRoom(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := Engine.LeaveRoom(roomID, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Đã rời phòng thảo luận"})
}

// DeleteRoom: xóa phòng (chỉ chủ phòng), xóa kèm participant và tin nhắn
func DeleteRoom(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := Engine.DeleteRoom(roomID, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Đã xóa phòng thảo luận"})
}

// GetMessages: lịch sử tin nhắn của phòng
func GetMessages(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	msgs, err := Engine.Messages(roomID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(msgs), "data": msgs})
}

// ToggleReady: đổi trạng thái sẵn sàng, đủ hết thì tự bắt đầu
func ToggleReady(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	resp, err := Engine.ToggleReady(roomID, userID)
	if err != nil {
		fail(c, err)
		return
	}

	message := "Đã hủy sẵn sàng"
	if resp.IsReady {
		message = "Đã sẵn sàng"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": resp})
}

// ForceStart: chủ phòng bắt đầu ngay, bỏ qua kiểm tra sẵn sàng
func ForceStart(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	room, err := Engine.ForceStart(roomID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Thảo luận đã bắt đầu",
		"data":    room,
	})
}

// GetParticipants: danh sách người tham gia kèm trạng thái sẵn sàng
func GetParticipants(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	participants, err := Engine.Participants(roomID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(participants), "data": participants})
}
