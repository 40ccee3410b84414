package models

import "time"

// Trạng thái phòng thảo luận
const (
	StatusWaiting    = "WAITING"     // đang chờ (trước giờ bắt đầu hoặc chưa đủ sẵn sàng)
	StatusInProgress = "IN_PROGRESS" // đang thảo luận
	StatusFinished   = "FINISHED"    // đã kết thúc
)

type DiscussionRoom struct {
	ID uint `gorm:"column:id;primaryKey;autoIncrement" json:"id"`

	// Thông tin sách đã chọn (chuỗi mờ, không kiểm tra lại ở đây)
	BookTitle     string `gorm:"column:book_title;size:500;not null" json:"bookTitle"`
	BookAuthor    string `gorm:"column:book_author;size:500;not null" json:"bookAuthor"`
	BookIsbn      string `gorm:"column:book_isbn;size:100" json:"bookIsbn"`
	BookCover     string `gorm:"column:book_cover;size:1000" json:"bookCover"`
	BookPublisher string `gorm:"column:book_publisher;size:500" json:"bookPublisher"`

	Description         string    `gorm:"column:description;size:500" json:"description"`
	MaxParticipants     int       `gorm:"column:max_participants;not null" json:"maxParticipants"`
	CurrentParticipants int       `gorm:"column:current_participants;not null;default:0" json:"currentParticipants"`
	StartTime           time.Time `gorm:"column:start_time;not null" json:"startTime"`
	Status              string    `gorm:"column:status;size:20;not null;default:'WAITING'" json:"status"`
	HostID              uint      `gorm:"column:host_id;not null" json:"hostId"`

	NgayTao     time.Time `gorm:"column:ngay_tao;autoCreateTime" json:"ngay_tao"`
	NgayCapNhat time.Time `gorm:"column:ngay_cap_nhat;autoUpdateTime" json:"ngay_cap_nhat"`

	Host         *NguoiDung              `gorm:"foreignKey:HostID" json:"-"`
	Rules        []RoomRule              `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
	Participants []DiscussionParticipant `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
	Messages     []DiscussionMessage     `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
}

func (DiscussionRoom) TableName() string {
	return "discussion_room"
}

// IsFull kiểm tra phòng đã đủ người chưa
func (r *DiscussionRoom) IsFull() bool {
	return r.CurrentParticipants >= r.MaxParticipants
}

// StartTimeReached kiểm tra đã đến giờ bắt đầu dự kiến chưa
func (r *DiscussionRoom) StartTimeReached() bool {
	return !time.Now().Before(r.StartTime)
}
