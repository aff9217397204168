package model

import "time"

// User 用户
// 通过邮箱一次性验证码登录创建，无密码
type User struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Email       string    `gorm:"uniqueIndex;size:255" json:"email"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
