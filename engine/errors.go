package engine

import "errors"

// Các lớp lỗi của engine. Controller phân loại bằng errors.Is
// rồi ánh xạ sang mã HTTP (404 / 400 / 403).
var (
	ErrRoomNotFound = errors.New("Phòng thảo luận không tồn tại")
	ErrUserNotFound = errors.New("Người dùng không tồn tại")

	ErrNotJoined     = errors.New("Bạn chưa tham gia phòng này")
	ErrAlreadyJoined = errors.New("Bạn đã tham gia phòng này rồi")
	ErrRoomFull      = errors.New("Phòng thảo luận đã đủ người")
	ErrRoomStarted   = errors.New("Phòng thảo luận đã bắt đầu")
	ErrRoomFinished  = errors.New("Phòng thảo luận đã kết thúc")

	ErrNotHost = errors.New("Chỉ chủ phòng mới có quyền thực hiện")

	ErrValidation = errors.New("Dữ liệu không hợp lệ")
)

// IsNotFound: phòng hoặc người dùng không tồn tại -> 404
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrUserNotFound)
}

// IsConflict: thao tác xung đột với trạng thái hiện tại -> 400
func IsConflict(err error) bool {
	return errors.Is(err, ErrNotJoined) ||
		errors.Is(err, ErrAlreadyJoined) ||
		errors.Is(err, ErrRoomFull) ||
		errors.Is(err, ErrRoomStarted) ||
		errors.Is(err, ErrRoomFinished)
}

// IsForbidden: thao tác chỉ dành cho chủ phòng -> 403
func IsForbidden(err error) bool {
	return errors.Is(err, ErrNotHost)
}

// IsValidation: dữ liệu tạo phòng không hợp lệ -> 400
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
