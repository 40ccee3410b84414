package engine

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vnkhanh/bookclub-server/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingBus ghi lại mọi payload đã Publish để kiểm tra broadcast.
type recordingBus struct {
	mu     sync.Mutex
	events []*MessageResponse
}

func (b *recordingBus) Publish(roomID uint, payload []byte) {
	var msg MessageResponse
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}
	b.mu.Lock()
	b.events = append(b.events, &msg)
	b.mu.Unlock()
}

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

func (b *recordingBus) last() *MessageResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	return b.events[len(b.events)-1]
}

func (b *recordingBus) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

func newTestEngine(t *testing.T) (*RoomEngine, *recordingBus, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// một kết nối duy nhất: giữ DB in-memory sống suốt test
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.NguoiDung{},
		&models.DiscussionRoom{},
		&models.RoomRule{},
		&models.DiscussionParticipant{},
		&models.DiscussionMessage{},
	))

	bus := &recordingBus{}
	return NewRoomEngine(db, bus), bus, db
}

func createUser(t *testing.T, db *gorm.DB, username, nickname string) *models.NguoiDung {
	t.Helper()
	user := models.NguoiDung{TenDangNhap: username, BietDanh: nickname}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func validCreateRequest(hostID uint, capacity int) CreateRoomRequest {
	return CreateRoomRequest{
		BookTitle:       "Dế Mèn Phiêu Lưu Ký",
		BookAuthor:      "Tô Hoài",
		BookIsbn:        "9786041001234",
		BookPublisher:   "NXB Kim Đồng",
		Description:     "Đọc và bàn chương 1-5",
		Rules:           []string{"Tôn trọng lẫn nhau", "Không spoil"},
		MaxParticipants: capacity,
		StartTime:       time.Now().Add(2 * time.Hour),
		HostID:          hostID,
	}
}

func TestCreateRoomValidation(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")

	cases := []struct {
		name   string
		mutate func(*CreateRoomRequest)
	}{
		{"không có quy tắc", func(r *CreateRoomRequest) { r.Rules = nil }},
		{"quy tắc toàn khoảng trắng", func(r *CreateRoomRequest) { r.Rules = []string{"   "} }},
		{"quá 4 quy tắc", func(r *CreateRoomRequest) { r.Rules = []string{"1", "2", "3", "4", "5"} }},
		{"sức chứa quá nhỏ", func(r *CreateRoomRequest) { r.MaxParticipants = 1 }},
		{"sức chứa quá lớn", func(r *CreateRoomRequest) { r.MaxParticipants = 5 }},
		{"giờ bắt đầu trong quá khứ", func(r *CreateRoomRequest) { r.StartTime = time.Now().Add(-time.Minute) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest(host.ID, 3)
			tc.mutate(&req)
			_, err := eng.CreateRoom(req)
			assert.True(t, IsValidation(err), "muốn lỗi validation, nhận: %v", err)
		})
	}

	_, err := eng.CreateRoom(validCreateRequest(999, 3))
	assert.True(t, IsNotFound(err))
}

func TestCreateRoomSeedsHostAndMessages(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)

	assert.Equal(t, models.StatusWaiting, room.Status)
	assert.Equal(t, 1, room.CurrentParticipants)
	assert.Equal(t, []string{"Tôn trọng lẫn nhau", "Không spoil"}, room.Rules)
	assert.Equal(t, host.ID, room.Host.ID)
	assert.Equal(t, "an", room.Host.UserID)

	// chủ phòng là participant HOST, active, chưa sẵn sàng
	var p models.DiscussionParticipant
	require.NoError(t, db.Where("room_id = ?", room.ID).First(&p).Error)
	assert.Equal(t, models.RoleHost, p.Role)
	assert.True(t, p.IsActive)
	assert.False(t, p.IsReady)

	// 2 tin nhắn hệ thống: tạo phòng + quy tắc
	msgs, err := eng.Messages(room.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.MessageSystem, msgs[0].Type)
	assert.Contains(t, msgs[0].Content, "đã tạo phòng")
	assert.Contains(t, msgs[1].Content, "Quy tắc")
}

func TestJoinRoom(t *testing.T) {
	eng, bus, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 3))
	require.NoError(t, err)

	joined, err := eng.JoinRoom(room.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, joined.CurrentParticipants)
	assert.Equal(t, models.StatusWaiting, joined.Status)

	// ENTER được ghi và phát
	require.Len(t, bus.types(), 1)
	assert.Equal(t, models.MessageEnter, bus.last().Type)
	assert.Equal(t, member.ID, bus.last().Sender.ID)

	// vào lại lần nữa -> Conflict, sĩ số không đổi
	_, err = eng.JoinRoom(room.ID, member.ID)
	assert.True(t, IsConflict(err))
	detail, err := eng.RoomDetail(room.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.CurrentParticipants)
}

func TestJoinRoomNotFoundAndFinished(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")

	_, err := eng.JoinRoom(12345, member.ID)
	assert.True(t, IsNotFound(err))

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 3))
	require.NoError(t, err)

	_, err = eng.JoinRoom(room.ID, 999)
	assert.True(t, IsNotFound(err))

	require.NoError(t, db.Model(&models.DiscussionRoom{}).Where("id = ?", room.ID).
		Update("status", models.StatusFinished).Error)
	_, err = eng.JoinRoom(room.ID, member.ID)
	assert.True(t, IsConflict(err))
}

func TestJoinRoomFullRejected(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	u2 := createUser(t, db, "binh", "Bình")
	u3 := createUser(t, db, "chi", "Chi")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)

	_, err = eng.JoinRoom(room.ID, u2.ID)
	require.NoError(t, err)

	_, err = eng.JoinRoom(room.ID, u3.ID)
	assert.True(t, IsConflict(err))

	detail, err := eng.RoomDetail(room.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.CurrentParticipants)
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)

	users := make([]*models.NguoiDung, 6)
	for i := range users {
		users[i] = createUser(t, db, fmt.Sprintf("user%d", i), fmt.Sprintf("User %d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, u := range users {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, errs[i] = eng.JoinRoom(room.ID, userID)
		}(i, u.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, IsConflict(err))
		}
	}
	assert.Equal(t, 1, succeeded, "chỉ một join được vào chỗ trống cuối")

	// bất biến sức chứa: sĩ số == số participant active == maxParticipants
	detail, err := eng.RoomDetail(room.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.CurrentParticipants)

	var active int64
	require.NoError(t, db.Model(&models.DiscussionParticipant{}).
		Where("room_id = ? AND is_active = ?", room.ID, true).Count(&active).Error)
	assert.EqualValues(t, 2, active)
}

func TestLeaveRoomReopensFullRoom(t *testing.T) {
	eng, bus, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")
	late := createUser(t, db, "chi", "Chi")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)
	_, err = eng.JoinRoom(room.ID, member.ID)
	require.NoError(t, err)
	bus.reset()

	require.NoError(t, eng.LeaveRoom(room.ID, member.ID))

	// LEAVE được ghi và phát, sĩ số giảm
	assert.Equal(t, []string{models.MessageLeave}, bus.types())
	detail, err := eng.RoomDetail(room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.CurrentParticipants)

	// hàng participant bị soft-delete, không xóa hẳn
	var p models.DiscussionParticipant
	require.NoError(t, db.Where("room_id = ? AND user_id = ?", room.ID, member.ID).First(&p).Error)
	assert.False(t, p.IsActive)
	require.NotNil(t, p.LeftAt)

	// rời lần nữa -> Conflict
	err = eng.LeaveRoom(room.ID, member.ID)
	assert.True(t, IsConflict(err))

	// phòng hết đầy, người khác vào được
	_, err = eng.JoinRoom(room.ID, late.ID)
	require.NoError(t, err)
}

func TestToggleReadyAutoStart(t *testing.T) {
	eng, bus, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)
	_, err = eng.JoinRoom(room.ID, member.ID)
	require.NoError(t, err)
	bus.reset()

	// chủ phòng sẵn sàng -> vẫn chờ vì thành viên chưa sẵn sàng
	resp, err := eng.ToggleReady(room.ID, host.ID)
	require.NoError(t, err)
	assert.True(t, resp.IsReady)
	assert.False(t, resp.AllReady)
	assert.Equal(t, models.StatusWaiting, resp.RoomStatus)

	// thành viên sẵn sàng -> đủ hết -> tự bắt đầu
	resp, err = eng.ToggleReady(room.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, resp.AllReady)
	assert.Equal(t, models.StatusInProgress, resp.RoomStatus)

	// broadcast theo thứ tự: ready(host), ready(member), bắt đầu
	types := bus.types()
	require.Len(t, types, 3)
	assert.Equal(t, []string{models.MessageSystem, models.MessageSystem, models.MessageSystem}, types)
	assert.Contains(t, bus.last().Content, "Bắt đầu thảo luận")

	// phòng đã bắt đầu thì không toggle được nữa
	_, err = eng.ToggleReady(room.ID, host.ID)
	assert.True(t, IsConflict(err))
}

func TestToggleReadyOffKeepsWaiting(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)
	_, err = eng.JoinRoom(room.ID, member.ID)
	require.NoError(t, err)

	_, err = eng.ToggleReady(room.ID, host.ID)
	require.NoError(t, err)

	// chủ phòng đổi ý trước khi đủ hết -> hủy sẵn sàng, vẫn chờ
	resp, err := eng.ToggleReady(room.ID, host.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsReady)
	assert.False(t, resp.AllReady)
	assert.Equal(t, models.StatusWaiting, resp.RoomStatus)

	// thành viên sẵn sàng một mình cũng không bắt đầu
	resp, err = eng.ToggleReady(room.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, resp.AllReady)
	assert.Equal(t, models.StatusWaiting, resp.RoomStatus)
}

func TestToggleReadyRequiresMembership(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	outsider := createUser(t, db, "binh", "Bình")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)

	_, err = eng.ToggleReady(room.ID, outsider.ID)
	assert.True(t, IsConflict(err))
}

func TestForceStart(t *testing.T) {
	eng, bus, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 3))
	require.NoError(t, err)
	_, err = eng.JoinRoom(room.ID, member.ID)
	require.NoError(t, err)
	bus.reset()

	// không phải chủ phòng -> Forbidden, trạng thái giữ nguyên
	_, err = eng.ForceStart(room.ID, member.ID)
	assert.True(t, IsForbidden(err))
	detail, err := eng.RoomDetail(room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, detail.Status)

	// chủ phòng bắt đầu ngay dù chưa ai sẵn sàng
	started, err := eng.ForceStart(room.ID, host.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, started.Status)
	assert.Contains(t, bus.last().Content, "Chủ phòng đã bắt đầu")

	// trạng thái sẵn sàng của từng người không bị đổi
	participants, err := eng.Participants(room.ID)
	require.NoError(t, err)
	for _, p := range participants {
		assert.False(t, p.IsReady)
	}

	// bắt đầu lần nữa -> Conflict
	_, err = eng.ForceStart(room.ID, host.ID)
	assert.True(t, IsConflict(err))
}

func TestForceStartedRoomStaysStarted(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 3))
	require.NoError(t, err)
	_, err = eng.JoinRoom(room.ID, member.ID)
	require.NoError(t, err)

	_, err = eng.ForceStart(room.ID, host.ID)
	require.NoError(t, err)

	// trạng thái không lùi về WAITING dù chưa ai sẵn sàng và chưa đến giờ
	for i := 0; i < 3; i++ {
		detail, err := eng.RoomDetail(room.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, detail.Status)
	}
}

func TestScheduledTimeAutoStart(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)

	// lùi giờ bắt đầu về quá khứ, lần đọc kế tiếp phải nâng trạng thái
	require.NoError(t, db.Model(&models.DiscussionRoom{}).Where("id = ?", room.ID).
		Update("start_time", time.Now().Add(-time.Minute)).Error)

	detail, err := eng.RoomDetail(room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, detail.Status)
}

func TestStatusRefreshWaitsForRoomLock(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.DiscussionRoom{}).Where("id = ?", room.ID).
		Update("start_time", time.Now().Add(-time.Minute)).Error)

	// giữ khóa phòng: đường đọc không được nâng trạng thái chen ngang
	l := eng.lockRoom(room.ID)
	l.Lock()

	done := make(chan *RoomResponse, 1)
	go func() {
		detail, err := eng.RoomDetail(room.ID)
		if err == nil {
			done <- detail
		}
	}()

	select {
	case <-done:
		t.Fatal("nâng trạng thái lười phải chờ khóa phòng")
	case <-time.After(100 * time.Millisecond):
	}

	l.Unlock()
	select {
	case detail := <-done:
		assert.Equal(t, models.StatusInProgress, detail.Status)
	case <-time.After(time.Second):
		t.Fatal("RoomDetail không hoàn thành sau khi nhả khóa")
	}
}

func TestDeleteRoomCascades(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 3))
	require.NoError(t, err)
	_, err = eng.JoinRoom(room.ID, member.ID)
	require.NoError(t, err)

	// thành viên thường không xóa được
	err = eng.DeleteRoom(room.ID, member.ID)
	assert.True(t, IsForbidden(err))

	require.NoError(t, eng.DeleteRoom(room.ID, host.ID))

	_, err = eng.RoomDetail(room.ID)
	assert.True(t, IsNotFound(err))

	var count int64
	db.Model(&models.DiscussionParticipant{}).Where("room_id = ?", room.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.DiscussionMessage{}).Where("room_id = ?", room.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.RoomRule{}).Where("room_id = ?", room.ID).Count(&count)
	assert.Zero(t, count)
}

func TestDeleteRoomReleasesLock(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)

	// chạm vào khóa để chắc chắn entry tồn tại trước khi xóa
	eng.lockRoom(room.ID)
	require.NoError(t, eng.DeleteRoom(room.ID, host.ID))

	eng.mu.Lock()
	_, ok := eng.locks[room.ID]
	eng.mu.Unlock()
	assert.False(t, ok, "mutex của phòng đã xóa phải được gỡ khỏi map")
}

func TestSingleHostInvariant(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	u2 := createUser(t, db, "binh", "Bình")
	u3 := createUser(t, db, "chi", "Chi")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 3))
	require.NoError(t, err)
	_, err = eng.JoinRoom(room.ID, u2.ID)
	require.NoError(t, err)
	_, err = eng.JoinRoom(room.ID, u3.ID)
	require.NoError(t, err)

	var hosts int64
	require.NoError(t, db.Model(&models.DiscussionParticipant{}).
		Where("room_id = ? AND role = ?", room.ID, models.RoleHost).Count(&hosts).Error)
	assert.EqualValues(t, 1, hosts)
}

func TestPostMessageAllowedAfterFinish(t *testing.T) {
	eng, bus, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.DiscussionRoom{}).Where("id = ?", room.ID).
		Update("status", models.StatusFinished).Error)
	bus.reset()

	// hành vi gốc được giữ: phòng FINISHED vẫn nhận chat
	msg, err := eng.PostMessage(room.ID, host.ID, models.MessageChat, "hẹn lần sau nhé")
	require.NoError(t, err)
	assert.Equal(t, models.MessageChat, msg.Type)
	assert.Equal(t, []string{models.MessageChat}, bus.types())
}

func TestPostMessageDefaultsAndValidation(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)

	msg, err := eng.PostMessage(room.ID, host.ID, models.MessageEnter, "")
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "đã vào phòng")

	msg, err = eng.PostMessage(room.ID, host.ID, models.MessageLeave, "")
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "đã rời phòng")

	_, err = eng.PostMessage(room.ID, host.ID, "SHOUT", "xin chào")
	assert.True(t, IsValidation(err))

	_, err = eng.PostMessage(room.ID, 999, models.MessageChat, "xin chào")
	assert.True(t, IsNotFound(err))
}

func TestMessagesOrderedByCreation(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 2))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := eng.PostMessage(room.ID, host.ID, models.MessageChat, fmt.Sprintf("tin %d", i))
		require.NoError(t, err)
	}

	msgs, err := eng.Messages(room.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 7) // 2 tin hệ thống lúc tạo + 5 tin chat

	for i := 1; i < len(msgs); i++ {
		assert.LessOrEqual(t, msgs[i-1].ID, msgs[i].ID)
	}
	assert.Equal(t, "tin 4", msgs[len(msgs)-1].Content)
	assert.Equal(t, "an", msgs[len(msgs)-1].Sender.UserID)
}

func TestListingsAndFilters(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")

	reqA := validCreateRequest(host.ID, 2)
	reqA.StartTime = time.Now().Add(3 * time.Hour)
	roomA, err := eng.CreateRoom(reqA)
	require.NoError(t, err)

	reqB := validCreateRequest(host.ID, 2)
	reqB.StartTime = time.Now().Add(1 * time.Hour)
	roomB, err := eng.CreateRoom(reqB)
	require.NoError(t, err)

	// phòng chờ: sắp đến giờ trước
	waiting, err := eng.WaitingRooms()
	require.NoError(t, err)
	require.Len(t, waiting, 2)
	assert.Equal(t, roomB.ID, waiting[0].ID)
	assert.Equal(t, roomA.ID, waiting[1].ID)

	// lấp đầy roomB -> biến mất khỏi danh sách còn chỗ
	_, err = eng.JoinRoom(roomB.ID, member.ID)
	require.NoError(t, err)
	available, err := eng.AvailableRooms()
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, roomA.ID, available[0].ID)

	// bắt đầu roomB -> xuất hiện trong in-progress, vẫn nằm trong active
	_, err = eng.ForceStart(roomB.ID, host.ID)
	require.NoError(t, err)

	inProgress, err := eng.InProgressRooms()
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, roomB.ID, inProgress[0].ID)

	active, err := eng.ActiveRooms()
	require.NoError(t, err)
	assert.Len(t, active, 2)

	// kết thúc roomB -> rời khỏi active
	require.NoError(t, db.Model(&models.DiscussionRoom{}).Where("id = ?", roomB.ID).
		Update("status", models.StatusFinished).Error)
	active, err = eng.ActiveRooms()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, roomA.ID, active[0].ID)
}

func TestMyRooms(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")

	roomA, err := eng.CreateRoom(validCreateRequest(host.ID, 3))
	require.NoError(t, err)
	_, err = eng.CreateRoom(validCreateRequest(host.ID, 3))
	require.NoError(t, err)

	_, err = eng.JoinRoom(roomA.ID, member.ID)
	require.NoError(t, err)

	mine, err := eng.MyRooms(member.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, roomA.ID, mine[0].ID)

	hostRooms, err := eng.MyRooms(host.ID)
	require.NoError(t, err)
	assert.Len(t, hostRooms, 2)

	// rời phòng thì không còn trong danh sách của tôi
	require.NoError(t, eng.LeaveRoom(roomA.ID, member.ID))
	mine, err = eng.MyRooms(member.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = eng.MyRooms(999)
	assert.True(t, IsNotFound(err))
}

func TestParticipantsListing(t *testing.T) {
	eng, _, db := newTestEngine(t)
	host := createUser(t, db, "an", "An")
	member := createUser(t, db, "binh", "Bình")

	room, err := eng.CreateRoom(validCreateRequest(host.ID, 3))
	require.NoError(t, err)
	_, err = eng.JoinRoom(room.ID, member.ID)
	require.NoError(t, err)
	_, err = eng.ToggleReady(room.ID, member.ID)
	require.NoError(t, err)

	participants, err := eng.Participants(room.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)

	// vào trước đứng trước
	assert.Equal(t, host.ID, participants[0].UserID)
	assert.Equal(t, models.RoleHost, participants[0].Role)
	assert.False(t, participants[0].IsReady)

	assert.Equal(t, member.ID, participants[1].UserID)
	assert.Equal(t, models.RoleMember, participants[1].Role)
	assert.True(t, participants[1].IsReady)
	assert.Equal(t, "Bình", participants[1].Nickname)

	// người đã rời không xuất hiện
	require.NoError(t, eng.LeaveRoom(room.ID, member.ID))
	participants, err = eng.Participants(room.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, host.ID, participants[0].UserID)
}
