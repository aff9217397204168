package model

import "time"

// ChatSession 聊天会话
// MessageCount 与 messages 表中 session_id 匹配的记录数保持一致
type ChatSession struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:255" json:"name"`
	Model        string    `gorm:"size:64" json:"model"`
	MessageCount int       `gorm:"default:0" json:"message_count"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`
}

// ChatMessage 聊天消息
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"index;size:36" json:"session_id"`
	Role      string    `gorm:"size:20" json:"role"` // user, assistant
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TableName 指定表名
func (ChatSession) TableName() string {
	return "sessions"
}

func (ChatMessage) TableName() string {
	return "messages"
}
