package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vnkhanh/bookclub-server/models"
	"gorm.io/gorm"
)

// Broadcaster nhận payload đã commit và phát cho các subscriber của phòng.
// hub.Hub hiện thực interface này; engine không phụ thuộc ngược vào hub.
type Broadcaster interface {
	Publish(roomID uint, payload []byte)
}

// RoomEngine thực thi máy trạng thái của phòng thảo luận.
// Mọi thao tác ghi trên cùng một phòng được tuần tự hóa bằng mutex theo roomID;
// các phòng khác nhau chạy song song hoàn toàn.
type RoomEngine struct {
	db  *gorm.DB
	bus Broadcaster

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewRoomEngine(db *gorm.DB, bus Broadcaster) *RoomEngine {
	return &RoomEngine{
		db:    db,
		bus:   bus,
		locks: make(map[uint]*sync.Mutex),
	}
}

// lockRoom trả về mutex riêng của phòng, tạo mới nếu chưa có.
func (e *RoomEngine) lockRoom(roomID uint) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	if l, ok := e.locks[roomID]; ok {
		return l
	}
	l := &sync.Mutex{}
	e.locks[roomID] = l
	return l
}

// dropLock gỡ mutex của phòng đã xóa khỏi map để map không phình mãi.
// Goroutine còn chờ trên mutex cũ vẫn chạy tiếp bình thường và sẽ nhận
// ErrRoomNotFound khi tra cứu phòng.
func (e *RoomEngine) dropLock(roomID uint) {
	e.mu.Lock()
	delete(e.locks, roomID)
	e.mu.Unlock()
}

// broadcast phát tin nhắn đã commit cho các subscriber của phòng.
// Lỗi phát không ảnh hưởng kết quả đã ghi (fire-and-forget).
func (e *RoomEngine) broadcast(roomID uint, msg *MessageResponse) {
	if e.bus == nil || msg == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Không serialize được tin nhắn broadcast")
		return
	}
	e.bus.Publish(roomID, payload)
}

func (e *RoomEngine) findRoom(db *gorm.DB, roomID uint) (*models.DiscussionRoom, error) {
	var room models.DiscussionRoom
	if err := db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// findRoomFull nạp kèm chủ phòng và quy tắc (đúng thứ tự) để trả response.
func (e *RoomEngine) findRoomFull(db *gorm.DB, roomID uint) (*models.DiscussionRoom, error) {
	var room models.DiscussionRoom
	err := db.
		Preload("Host").
		Preload("Rules", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		First(&room, roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (e *RoomEngine) findUser(db *gorm.DB, userID uint) (*models.NguoiDung, error) {
	var user models.NguoiDung
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (e *RoomEngine) findActiveParticipant(db *gorm.DB, roomID, userID uint) (*models.DiscussionParticipant, error) {
	var p models.DiscussionParticipant
	err := db.Where("room_id = ? AND user_id = ? AND is_active = ?", roomID, userID, true).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotJoined
		}
		return nil, err
	}
	return &p, nil
}

// allParticipantsReady: có ít nhất 1 người đang hoạt động và tất cả đều sẵn sàng.
func (e *RoomEngine) allParticipantsReady(db *gorm.DB, roomID uint) (bool, error) {
	var active, ready int64
	if err := db.Model(&models.DiscussionParticipant{}).
		Where("room_id = ? AND is_active = ?", roomID, true).
		Count(&active).Error; err != nil {
		return false, err
	}
	if err := db.Model(&models.DiscussionParticipant{}).
		Where("room_id = ? AND is_active = ? AND is_ready = ?", roomID, true, true).
		Count(&ready).Error; err != nil {
		return false, err
	}
	return active > 0 && active == ready, nil
}

// refreshStatus nâng phòng WAITING lên IN_PROGRESS khi điều kiện bắt đầu
// thỏa (tất cả sẵn sàng HOẶC đã đến giờ dự kiến). Đánh giá lười: gọi từ
// các đường đọc và join thay vì chạy ticker nền. Trạng thái không bao giờ
// lùi: IN_PROGRESS và FINISHED giữ nguyên.
func (e *RoomEngine) refreshStatus(db *gorm.DB, room *models.DiscussionRoom) error {
	if room.Status != models.StatusWaiting {
		return nil
	}

	allReady, err := e.allParticipantsReady(db, room.ID)
	if err != nil {
		return err
	}
	if !allReady && !room.StartTimeReached() {
		return nil
	}

	room.Status = models.StatusInProgress
	return db.Model(&models.DiscussionRoom{}).Where("id = ?", room.ID).
		Update("status", models.StatusInProgress).Error
}

// refreshStatusLocked là refreshStatus cho các đường chỉ đọc: lấy khóa
// phòng rồi đánh giá lại trong một transaction, để hai phép đếm sẵn sàng
// không bị một join/toggle ghi xen giữa. Phòng vừa bị xóa thì giữ nguyên
// snapshot đang có.
func (e *RoomEngine) refreshStatusLocked(room *models.DiscussionRoom) error {
	if room.Status != models.StatusWaiting {
		return nil
	}

	l := e.lockRoom(room.ID)
	l.Lock()
	defer l.Unlock()

	return e.db.Transaction(func(tx *gorm.DB) error {
		current, err := e.findRoom(tx, room.ID)
		if err != nil {
			if errors.Is(err, ErrRoomNotFound) {
				return nil
			}
			return err
		}
		if err := e.refreshStatus(tx, current); err != nil {
			return err
		}
		room.Status = current.Status
		return nil
	})
}

// appendMessage lưu một tin nhắn vào log của phòng và trả phong bì broadcast.
func (e *RoomEngine) appendMessage(db *gorm.DB, room *models.DiscussionRoom, user *models.NguoiDung, msgType, content string) (*MessageResponse, error) {
	msg := models.DiscussionMessage{
		RoomID:  room.ID,
		UserID:  user.ID,
		Type:    msgType,
		Content: content,
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return toMessageResponse(&msg, user), nil
}

// CreateRoom tạo phòng WAITING, tự thêm chủ phòng làm participant đầu tiên
// và ghi 2 tin nhắn hệ thống (tạo phòng + quy tắc).
func (e *RoomEngine) CreateRoom(req CreateRoomRequest) (*RoomResponse, error) {
	rules := make([]string, 0, len(req.Rules))
	for _, rule := range req.Rules {
		if trimmed := strings.TrimSpace(rule); trimmed != "" {
			rules = append(rules, trimmed)
		}
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: cần ít nhất 1 quy tắc thảo luận", ErrValidation)
	}
	if len(rules) > 4 {
		return nil, fmt.Errorf("%w: tối đa 4 quy tắc thảo luận", ErrValidation)
	}
	if req.MaxParticipants < 2 || req.MaxParticipants > 4 {
		return nil, fmt.Errorf("%w: số người tối đa phải từ 2 đến 4", ErrValidation)
	}
	if !req.StartTime.After(time.Now()) {
		return nil, fmt.Errorf("%w: giờ bắt đầu phải ở tương lai", ErrValidation)
	}

	var roomID uint
	err := e.db.Transaction(func(tx *gorm.DB) error {
		host, err := e.findUser(tx, req.HostID)
		if err != nil {
			return err
		}

		room := models.DiscussionRoom{
			BookTitle:           req.BookTitle,
			BookAuthor:          req.BookAuthor,
			BookIsbn:            req.BookIsbn,
			BookCover:           req.BookCover,
			BookPublisher:       req.BookPublisher,
			Description:         req.Description,
			MaxParticipants:     req.MaxParticipants,
			CurrentParticipants: 1, // chủ phòng tham gia luôn
			StartTime:           req.StartTime,
			Status:              models.StatusWaiting,
			HostID:              host.ID,
		}
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		roomID = room.ID

		for i, content := range rules {
			rule := models.RoomRule{RoomID: room.ID, Position: i + 1, Content: content}
			if err := tx.Create(&rule).Error; err != nil {
				return err
			}
		}

		participant := models.DiscussionParticipant{
			RoomID:   room.ID,
			UserID:   host.ID,
			Role:     models.RoleHost,
			IsActive: true,
			IsReady:  false,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}

		if _, err := e.appendMessage(tx, &room, host, models.MessageSystem,
			host.BietDanh+" đã tạo phòng thảo luận."); err != nil {
			return err
		}
		if _, err := e.appendMessage(tx, &room, host, models.MessageSystem,
			"📌 Quy tắc của phòng: "+strings.Join(rules, ", ")); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"room_id": roomID, "host_id": req.HostID}).Info("Đã tạo phòng thảo luận")

	room, err := e.findRoomFull(e.db, roomID)
	if err != nil {
		return nil, err
	}
	return toRoomResponse(room), nil
}

// JoinRoom thêm người dùng vào phòng nếu chưa tham gia, phòng chưa đầy
// và chưa kết thúc. Ghi + phát tin nhắn ENTER.
func (e *RoomEngine) JoinRoom(roomID, userID uint) (*RoomResponse, error) {
	l := e.lockRoom(roomID)
	l.Lock()
	defer l.Unlock()

	var enterMsg *MessageResponse
	err := e.db.Transaction(func(tx *gorm.DB) error {
		room, err := e.findRoom(tx, roomID)
		if err != nil {
			return err
		}
		user, err := e.findUser(tx, userID)
		if err != nil {
			return err
		}
		if err := e.refreshStatus(tx, room); err != nil {
			return err
		}

		if _, err := e.findActiveParticipant(tx, roomID, userID); err == nil {
			return ErrAlreadyJoined
		} else if !errors.Is(err, ErrNotJoined) {
			return err
		}
		if room.IsFull() {
			return ErrRoomFull
		}
		if room.Status == models.StatusFinished {
			return ErrRoomFinished
		}

		participant := models.DiscussionParticipant{
			RoomID:   room.ID,
			UserID:   user.ID,
			Role:     models.RoleMember,
			IsActive: true,
			IsReady:  false,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}

		room.CurrentParticipants++
		if err := tx.Model(&models.DiscussionRoom{}).Where("id = ?", room.ID).
			Update("current_participants", room.CurrentParticipants).Error; err != nil {
			return err
		}

		enterMsg, err = e.appendMessage(tx, room, user, models.MessageEnter,
			user.BietDanh+" đã vào phòng thảo luận.")
		return err
	})
	if err != nil {
		return nil, err
	}

	e.broadcast(roomID, enterMsg)
	logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Info("Người dùng vào phòng")

	room, err := e.findRoomFull(e.db, roomID)
	if err != nil {
		return nil, err
	}
	return toRoomResponse(room), nil
}

// LeaveRoom đánh dấu participant rời phòng (soft delete) và giảm sĩ số.
// Không đánh giá lại điều kiện tự bắt đầu; việc đó diễn ra lười ở lần
// toggle-ready hoặc lần đọc trạng thái kế tiếp.
func (e *RoomEngine) LeaveRoom(roomID, userID uint) error {
	l := e.lockRoom(roomID)
	l.Lock()
	defer l.Unlock()

	var leaveMsg *MessageResponse
	err := e.db.Transaction(func(tx *gorm.DB) error {
		room, err := e.findRoom(tx, roomID)
		if err != nil {
			return err
		}
		user, err := e.findUser(tx, userID)
		if err != nil {
			return err
		}
		participant, err := e.findActiveParticipant(tx, roomID, userID)
		if err != nil {
			return err
		}

		now := time.Now()
		participant.IsActive = false
		participant.LeftAt = &now
		if err := tx.Model(&models.DiscussionParticipant{}).Where("id = ?", participant.ID).
			Updates(map[string]interface{}{"is_active": false, "left_at": now}).Error; err != nil {
			return err
		}

		if room.CurrentParticipants > 0 {
			room.CurrentParticipants--
		}
		if err := tx.Model(&models.DiscussionRoom{}).Where("id = ?", room.ID).
			Update("current_participants", room.CurrentParticipants).Error; err != nil {
			return err
		}

		leaveMsg, err = e.appendMessage(tx, room, user, models.MessageLeave,
			user.BietDanh+" đã rời phòng thảo luận.")
		return err
	})
	if err != nil {
		return err
	}

	e.broadcast(roomID, leaveMsg)
	logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Info("Người dùng rời phòng")
	return nil
}

// ToggleReady đảo trạng thái sẵn sàng của người gọi, phát tin nhắn hệ thống,
// rồi đánh giá lại điều kiện tự bắt đầu: tất cả đang hoạt động đều sẵn sàng
// -> chuyển IN_PROGRESS và phát tin nhắn bắt đầu.
func (e *RoomEngine) ToggleReady(roomID, userID uint) (*ReadyResponse, error) {
	l := e.lockRoom(roomID)
	l.Lock()
	defer l.Unlock()

	var (
		readyMsg, startMsg *MessageResponse
		resp               *ReadyResponse
	)
	err := e.db.Transaction(func(tx *gorm.DB) error {
		room, err := e.findRoom(tx, roomID)
		if err != nil {
			return err
		}
		user, err := e.findUser(tx, userID)
		if err != nil {
			return err
		}
		if room.Status == models.StatusInProgress {
			return ErrRoomStarted
		}
		if room.Status == models.StatusFinished {
			return ErrRoomFinished
		}

		participant, err := e.findActiveParticipant(tx, roomID, userID)
		if err != nil {
			return err
		}

		participant.IsReady = !participant.IsReady
		if err := tx.Model(&models.DiscussionParticipant{}).Where("id = ?", participant.ID).
			Update("is_ready", participant.IsReady).Error; err != nil {
			return err
		}

		content := user.BietDanh + " đã hủy sẵn sàng."
		if participant.IsReady {
			content = user.BietDanh + " đã sẵn sàng."
		}
		readyMsg, err = e.appendMessage(tx, room, user, models.MessageSystem, content)
		if err != nil {
			return err
		}

		allReady, err := e.allParticipantsReady(tx, room.ID)
		if err != nil {
			return err
		}
		if allReady {
			room.Status = models.StatusInProgress
			if err := tx.Model(&models.DiscussionRoom{}).Where("id = ?", room.ID).
				Update("status", models.StatusInProgress).Error; err != nil {
				return err
			}
			startMsg, err = e.appendMessage(tx, room, user, models.MessageSystem,
				"Tất cả thành viên đã sẵn sàng. Bắt đầu thảo luận!")
			if err != nil {
				return err
			}
		}

		resp = &ReadyResponse{
			UserID:     user.ID,
			Nickname:   user.BietDanh,
			IsReady:    participant.IsReady,
			AllReady:   allReady,
			RoomStatus: room.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Phát theo đúng thứ tự đã commit
	e.broadcast(roomID, readyMsg)
	e.broadcast(roomID, startMsg)

	logrus.WithFields(logrus.Fields{
		"room_id":   roomID,
		"user_id":   userID,
		"is_ready":  resp.IsReady,
		"all_ready": resp.AllReady,
	}).Info("Đổi trạng thái sẵn sàng")
	return resp, nil
}

// ForceStart cho chủ phòng bắt đầu ngay, bỏ qua kiểm tra sẵn sàng.
func (e *RoomEngine) ForceStart(roomID, userID uint) (*RoomResponse, error) {
	l := e.lockRoom(roomID)
	l.Lock()
	defer l.Unlock()

	var startMsg *MessageResponse
	err := e.db.Transaction(func(tx *gorm.DB) error {
		room, err := e.findRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.HostID != userID {
			return ErrNotHost
		}
		if room.Status == models.StatusInProgress {
			return ErrRoomStarted
		}
		if room.Status == models.StatusFinished {
			return ErrRoomFinished
		}

		host, err := e.findUser(tx, room.HostID)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.DiscussionRoom{}).Where("id = ?", room.ID).
			Update("status", models.StatusInProgress).Error; err != nil {
			return err
		}

		startMsg, err = e.appendMessage(tx, room, host, models.MessageSystem,
			"Chủ phòng đã bắt đầu thảo luận!")
		return err
	})
	if err != nil {
		return nil, err
	}

	e.broadcast(roomID, startMsg)
	logrus.WithFields(logrus.Fields{"room_id": roomID, "host_id": userID}).Info("Chủ phòng bắt đầu sớm")

	room, err := e.findRoomFull(e.db, roomID)
	if err != nil {
		return nil, err
	}
	return toRoomResponse(room), nil
}

// DeleteRoom xóa phòng cùng toàn bộ participant, quy tắc và tin nhắn.
// Chỉ chủ phòng được xóa.
func (e *RoomEngine) DeleteRoom(roomID, userID uint) error {
	l := e.lockRoom(roomID)
	l.Lock()
	defer l.Unlock()

	err := e.db.Transaction(func(tx *gorm.DB) error {
		room, err := e.findRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.HostID != userID {
			return ErrNotHost
		}

		if err := tx.Where("room_id = ?", room.ID).Delete(&models.DiscussionMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", room.ID).Delete(&models.DiscussionParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", room.ID).Delete(&models.RoomRule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.DiscussionRoom{}, room.ID).Error
	})
	if err != nil {
		return err
	}

	e.dropLock(roomID)
	logrus.WithField("room_id", roomID).Info("Đã xóa phòng thảo luận")
	return nil
}

// PostMessage ghi một tin nhắn vào phòng và phát cho subscriber.
// Cho phép ở mọi trạng thái phòng, kể cả FINISHED (giữ nguyên hành vi gốc).
// Với ENTER/LEAVE nếu content trống thì tự sinh nội dung thông báo.
func (e *RoomEngine) PostMessage(roomID, userID uint, msgType, content string) (*MessageResponse, error) {
	switch msgType {
	case models.MessageChat, models.MessageEnter, models.MessageLeave, models.MessageSystem:
	default:
		return nil, fmt.Errorf("%w: loại tin nhắn không hợp lệ", ErrValidation)
	}

	l := e.lockRoom(roomID)
	l.Lock()
	defer l.Unlock()

	var msg *MessageResponse
	err := e.db.Transaction(func(tx *gorm.DB) error {
		room, err := e.findRoom(tx, roomID)
		if err != nil {
			return err
		}
		user, err := e.findUser(tx, userID)
		if err != nil {
			return err
		}

		if content == "" {
			switch msgType {
			case models.MessageEnter:
				content = user.BietDanh + " đã vào phòng thảo luận."
			case models.MessageLeave:
				content = user.BietDanh + " đã rời phòng thảo luận."
			}
		}

		msg, err = e.appendMessage(tx, room, user, msgType, content)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.broadcast(roomID, msg)
	return msg, nil
}

// LookupUser tra cứu danh tính rút gọn cho session gateway.
func (e *RoomEngine) LookupUser(userID uint) (*SenderInfo, error) {
	user, err := e.findUser(e.db, userID)
	if err != nil {
		return nil, err
	}
	return &SenderInfo{ID: user.ID, UserID: user.TenDangNhap, Nickname: user.BietDanh}, nil
}
