package models

import "time"

// Vai trò trong phòng
const (
	RoleHost   = "HOST"   // chủ phòng, cố định từ lúc tạo
	RoleMember = "MEMBER" // thành viên thường
)

type DiscussionParticipant struct {
	ID     uint `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoomID uint `gorm:"column:room_id;not null;index" json:"room_id"`
	UserID uint `gorm:"column:user_id;not null" json:"user_id"`

	Role     string     `gorm:"column:role;size:20;not null;default:'MEMBER'" json:"role"`
	IsActive bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsReady  bool       `gorm:"column:is_ready;not null;default:false" json:"is_ready"`
	JoinedAt time.Time  `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
	LeftAt   *time.Time `gorm:"column:left_at" json:"left_at"`

	User *NguoiDung `gorm:"foreignKey:UserID" json:"-"`
}

func (DiscussionParticipant) TableName() string {
	return "discussion_participant"
}
