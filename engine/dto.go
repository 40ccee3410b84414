package engine

import (
	"time"

	"github.com/vnkhanh/bookclub-server/models"
)

// CreateRoomRequest là dữ liệu tạo phòng từ client.
type CreateRoomRequest struct {
	BookTitle       string    `json:"bookTitle" binding:"required"`
	BookAuthor      string    `json:"bookAuthor" binding:"required"`
	BookIsbn        string    `json:"bookIsbn"`
	BookCover       string    `json:"bookCover"`
	BookPublisher   string    `json:"bookPublisher"`
	Description     string    `json:"description"`
	Rules           []string  `json:"rules" binding:"required"`
	MaxParticipants int       `json:"maxParticipants" binding:"required"`
	StartTime       time.Time `json:"startTime" binding:"required"`
	HostID          uint      `json:"hostId" binding:"required"`
}

// HostInfo / SenderInfo: danh tính rút gọn trả cho client.
type HostInfo struct {
	ID       uint   `json:"id"`
	UserID   string `json:"userId"` // khóa danh tính bên ngoài (tên đăng nhập)
	Nickname string `json:"nickname"`
}

type SenderInfo struct {
	ID       uint   `json:"id"`
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

// RoomResponse là biểu diễn duy nhất của phòng ở biên API.
type RoomResponse struct {
	ID                  uint      `json:"id"`
	BookTitle           string    `json:"bookTitle"`
	BookAuthor          string    `json:"bookAuthor"`
	BookIsbn            string    `json:"bookIsbn"`
	BookCover           string    `json:"bookCover"`
	BookPublisher       string    `json:"bookPublisher"`
	Description         string    `json:"description"`
	Rules               []string  `json:"rules"`
	MaxParticipants     int       `json:"maxParticipants"`
	CurrentParticipants int       `json:"currentParticipants"`
	StartTime           time.Time `json:"startTime"`
	Status              string    `json:"status"`
	Host                HostInfo  `json:"host"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// MessageResponse là phong bì tin nhắn, dùng chung cho REST và broadcast.
type MessageResponse struct {
	ID        uint       `json:"id"`
	RoomID    uint       `json:"discussionRoomId"`
	Type      string     `json:"type"`
	Content   string     `json:"content"`
	Sender    SenderInfo `json:"sender"`
	CreatedAt time.Time  `json:"createdAt"`
}

type ParticipantResponse struct {
	UserID   uint      `json:"userId"`
	Nickname string    `json:"nickname"`
	Role     string    `json:"role"`
	IsReady  bool      `json:"isReady"`
	JoinedAt time.Time `json:"joinedAt"`
}

// ReadyResponse trả về sau khi đổi trạng thái sẵn sàng.
type ReadyResponse struct {
	UserID     uint   `json:"userId"`
	Nickname   string `json:"nickname"`
	IsReady    bool   `json:"isReady"`
	AllReady   bool   `json:"allReady"`
	RoomStatus string `json:"roomStatus"`
}

func toRoomResponse(room *models.DiscussionRoom) *RoomResponse {
	rules := make([]string, 0, len(room.Rules))
	for _, rule := range room.Rules {
		rules = append(rules, rule.Content)
	}

	resp := &RoomResponse{
		ID:                  room.ID,
		BookTitle:           room.BookTitle,
		BookAuthor:          room.BookAuthor,
		BookIsbn:            room.BookIsbn,
		BookCover:           room.BookCover,
		BookPublisher:       room.BookPublisher,
		Description:         room.Description,
		Rules:               rules,
		MaxParticipants:     room.MaxParticipants,
		CurrentParticipants: room.CurrentParticipants,
		StartTime:           room.StartTime,
		Status:              room.Status,
		CreatedAt:           room.NgayTao,
		UpdatedAt:           room.NgayCapNhat,
	}
	if room.Host != nil {
		resp.Host = HostInfo{
			ID:       room.Host.ID,
			UserID:   room.Host.TenDangNhap,
			Nickname: room.Host.BietDanh,
		}
	}
	return resp
}

func toMessageResponse(msg *models.DiscussionMessage, user *models.NguoiDung) *MessageResponse {
	return &MessageResponse{
		ID:      msg.ID,
		RoomID:  msg.RoomID,
		Type:    msg.Type,
		Content: msg.Content,
		Sender: SenderInfo{
			ID:       user.ID,
			UserID:   user.TenDangNhap,
			Nickname: user.BietDanh,
		},
		CreatedAt: msg.CreatedAt,
	}
}
