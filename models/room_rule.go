package models

// RoomRule là một quy tắc thảo luận của phòng (1-4 quy tắc, giữ thứ tự).
// Thay cho cột JSON dạng text: mỗi quy tắc một dòng, sắp theo position.
type RoomRule struct {
	ID       uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoomID   uint   `gorm:"column:room_id;not null;index" json:"room_id"`
	Position int    `gorm:"column:position;not null" json:"position"`
	Content  string `gorm:"column:content;size:255;not null" json:"content"`
}

func (RoomRule) TableName() string {
	return "room_rule"
}
