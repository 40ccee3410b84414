package models

import "time"

// NguoiDung là bản ghi danh tính do hệ thống người dùng bên ngoài cung cấp.
// Engine chỉ tra cứu (userId -> biệt danh), không quản lý vòng đời tài khoản.
type NguoiDung struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TenDangNhap string    `gorm:"column:ten_dang_nhap;size:100;unique;not null" json:"ten_dang_nhap"`
	BietDanh    string    `gorm:"column:biet_danh;size:100;not null" json:"biet_danh"`
	NgayTao     time.Time `gorm:"column:ngay_tao;autoCreateTime" json:"ngay_tao"`
}

func (NguoiDung) TableName() string {
	return "nguoi_dung"
}
