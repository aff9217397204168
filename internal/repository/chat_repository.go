package repository

import (
	"encoding/json"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akproject/ak-chat/internal/model"
)

// StorageSize 存储占用统计（字节）
// 序列化整个集合估算，忽略存储开销，仅用于配额展示
type StorageSize struct {
	Sessions int `json:"sessions"`
	Messages int `json:"messages"`
	Total    int `json:"total"`
}

// chatRepositoryImpl 聊天数据访问
type chatRepositoryImpl struct {
	db *gorm.DB
}

// NewChatRepository 创建聊天仓库
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepositoryImpl{db: db}
}

// SaveSession 保存会话（按主键整条插入或替换）
// 调用方必须提供完整记录，不支持部分更新
func (r *chatRepositoryImpl) SaveSession(session *model.ChatSession) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(session).Error
	return wrapStorage("save session", err)
}

// SaveMessage 保存消息（按主键整条插入或替换）
func (r *chatRepositoryImpl) SaveMessage(message *model.ChatMessage) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(message).Error
	return wrapStorage("save message", err)
}

// GetSessionByID 获取会话
func (r *chatRepositoryImpl) GetSessionByID(id string) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := r.db.Where("id = ?", id).First(&session).Error; err != nil {
		return nil, wrapStorage("get session", err)
	}
	return &session, nil
}

// GetSessions 获取全部会话，最近活跃的在前
func (r *chatRepositoryImpl) GetSessions() ([]*model.ChatSession, error) {
	sessions := make([]*model.ChatSession, 0)
	err := r.db.Order("updated_at DESC").Find(&sessions).Error
	if err != nil {
		return nil, wrapStorage("list sessions", err)
	}
	return sessions, nil
}

// GetSessionMessages 获取会话消息，按创建时间升序
// 查询走 session_id 索引，不做全表扫描
func (r *chatRepositoryImpl) GetSessionMessages(sessionID string) ([]*model.ChatMessage, error) {
	messages := make([]*model.ChatMessage, 0)
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, wrapStorage("list session messages", err)
	}
	return messages, nil
}

// CountSessionMessages 统计会话消息数
func (r *chatRepositoryImpl) CountSessionMessages(sessionID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		return 0, wrapStorage("count session messages", err)
	}
	return count, nil
}

// DeleteSession 删除会话并级联删除其全部消息
// 同一事务内先删消息再删会话，中断重试后不会残留孤儿消息
func (r *chatRepositoryImpl) DeleteSession(sessionID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.ChatMessage{}, "session_id = ?", sessionID).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ChatSession{}, "id = ?", sessionID).Error
	})
	return wrapStorage("delete session", err)
}

// GetStorageSize 估算两个集合的存储占用
func (r *chatRepositoryImpl) GetStorageSize() (*StorageSize, error) {
	sessions, err := r.GetSessions()
	if err != nil {
		return nil, err
	}

	messages := make([]*model.ChatMessage, 0)
	if err := r.db.Find(&messages).Error; err != nil {
		return nil, wrapStorage("list messages", err)
	}

	sessionsJSON, err := json.Marshal(sessions)
	if err != nil {
		return nil, wrapStorage("serialize sessions", err)
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return nil, wrapStorage("serialize messages", err)
	}

	return &StorageSize{
		Sessions: len(sessionsJSON),
		Messages: len(messagesJSON),
		Total:    len(sessionsJSON) + len(messagesJSON),
	}, nil
}

// ClearAllData 无条件清空两个集合，不可逆
func (r *chatRepositoryImpl) ClearAllData() error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&model.ChatSession{}).Error
	})
	return wrapStorage("clear all data", err)
}
