package models

import "time"

// Loại tin nhắn trong phòng
const (
	MessageChat   = "CHAT"   // tin nhắn thường
	MessageEnter  = "ENTER"  // thông báo vào phòng
	MessageLeave  = "LEAVE"  // thông báo rời phòng
	MessageSystem = "SYSTEM" // tin nhắn hệ thống
)

// DiscussionMessage chỉ được ghi thêm, không sửa/xóa sau khi lưu.
type DiscussionMessage struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoomID    uint      `gorm:"column:room_id;not null;index" json:"room_id"`
	UserID    uint      `gorm:"column:user_id;not null" json:"user_id"`
	Type      string    `gorm:"column:type;size:20;not null;default:'CHAT'" json:"type"`
	Content   string    `gorm:"column:content;size:2000;not null" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	User *NguoiDung `gorm:"foreignKey:UserID" json:"-"`
}

func (DiscussionMessage) TableName() string {
	return "discussion_message"
}
