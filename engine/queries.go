package engine

import (
	"github.com/vnkhanh/bookclub-server/models"
	"gorm.io/gorm"
)

// Các thao tác chỉ đọc. Phần đọc thuần không giữ khóa phòng (listing được
// phép thấy snapshot hơi cũ, miễn là nhất quán); riêng bước nâng trạng thái
// lười đi qua refreshStatusLocked vì nó ghi vào aggregate của phòng.

func (e *RoomEngine) listRooms(query *gorm.DB) ([]*RoomResponse, error) {
	var rooms []models.DiscussionRoom
	err := query.
		Preload("Host").
		Preload("Rules", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}

	out := make([]*RoomResponse, 0, len(rooms))
	for i := range rooms {
		if err := e.refreshStatusLocked(&rooms[i]); err != nil {
			return nil, err
		}
		out = append(out, toRoomResponse(&rooms[i]))
	}
	return out, nil
}

// ActiveRooms: phòng đang chờ hoặc đang thảo luận, mới tạo trước.
func (e *RoomEngine) ActiveRooms() ([]*RoomResponse, error) {
	return e.listRooms(e.db.
		Where("status IN ?", []string{models.StatusWaiting, models.StatusInProgress}).
		Order("ngay_tao desc"))
}

// WaitingRooms: phòng đang chờ, sắp đến giờ trước.
func (e *RoomEngine) WaitingRooms() ([]*RoomResponse, error) {
	var rooms []models.DiscussionRoom
	err := e.db.
		Preload("Host").
		Preload("Rules", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Where("status = ?", models.StatusWaiting).
		Order("start_time asc").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}

	out := make([]*RoomResponse, 0, len(rooms))
	for i := range rooms {
		out = append(out, toRoomResponse(&rooms[i]))
	}
	return out, nil
}

// InProgressRooms: cập nhật lười trạng thái các phòng chưa kết thúc
// rồi trả các phòng đang thảo luận, mới tạo trước.
func (e *RoomEngine) InProgressRooms() ([]*RoomResponse, error) {
	all, err := e.listRooms(e.db.
		Where("status != ?", models.StatusFinished).
		Order("ngay_tao desc"))
	if err != nil {
		return nil, err
	}

	out := make([]*RoomResponse, 0, len(all))
	for _, room := range all {
		if room.Status == models.StatusInProgress {
			out = append(out, room)
		}
	}
	return out, nil
}

// AvailableRooms: phòng còn chỗ và chưa kết thúc.
func (e *RoomEngine) AvailableRooms() ([]*RoomResponse, error) {
	return e.listRooms(e.db.
		Where("status != ? AND current_participants < max_participants", models.StatusFinished).
		Order("start_time asc"))
}

// MyRooms: các phòng người dùng đang tham gia.
func (e *RoomEngine) MyRooms(userID uint) ([]*RoomResponse, error) {
	if _, err := e.findUser(e.db, userID); err != nil {
		return nil, err
	}

	var roomIDs []uint
	err := e.db.Model(&models.DiscussionParticipant{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("room_id", &roomIDs).Error
	if err != nil {
		return nil, err
	}
	if len(roomIDs) == 0 {
		return []*RoomResponse{}, nil
	}

	return e.listRooms(e.db.Where("id IN ?", roomIDs).Order("ngay_tao desc"))
}

// RoomDetail: chi tiết một phòng, có cập nhật lười trạng thái.
func (e *RoomEngine) RoomDetail(roomID uint) (*RoomResponse, error) {
	room, err := e.findRoomFull(e.db, roomID)
	if err != nil {
		return nil, err
	}
	if err := e.refreshStatusLocked(room); err != nil {
		return nil, err
	}
	return toRoomResponse(room), nil
}

// Messages: toàn bộ lịch sử tin nhắn của phòng, cũ trước,
// trùng thời điểm thì theo thứ tự ghi.
func (e *RoomEngine) Messages(roomID uint) ([]*MessageResponse, error) {
	if _, err := e.findRoom(e.db, roomID); err != nil {
		return nil, err
	}

	var msgs []models.DiscussionMessage
	err := e.db.
		Preload("User").
		Where("room_id = ?", roomID).
		Order("created_at asc, id asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	out := make([]*MessageResponse, 0, len(msgs))
	for i := range msgs {
		user := msgs[i].User
		if user == nil {
			user = &models.NguoiDung{ID: msgs[i].UserID}
		}
		out = append(out, toMessageResponse(&msgs[i], user))
	}
	return out, nil
}

// Participants: người đang tham gia kèm trạng thái sẵn sàng, vào trước đứng trước.
func (e *RoomEngine) Participants(roomID uint) ([]*ParticipantResponse, error) {
	if _, err := e.findRoom(e.db, roomID); err != nil {
		return nil, err
	}

	var participants []models.DiscussionParticipant
	err := e.db.
		Preload("User").
		Where("room_id = ? AND is_active = ?", roomID, true).
		Order("joined_at asc, id asc").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}

	out := make([]*ParticipantResponse, 0, len(participants))
	for i := range participants {
		p := &participants[i]
		resp := &ParticipantResponse{
			UserID:   p.UserID,
			Role:     p.Role,
			IsReady:  p.IsReady,
			JoinedAt: p.JoinedAt,
		}
		if p.User != nil {
			resp.Nickname = p.User.BietDanh
		}
		out = append(out, resp)
	}
	return out, nil
}
