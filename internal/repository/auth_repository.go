package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akproject/ak-chat/internal/model"
)

// authRepositoryImpl 用户数据访问
type authRepositoryImpl struct {
	db *gorm.DB
}

// NewAuthRepository 创建认证仓库
func NewAuthRepository(db *gorm.DB) AuthRepository {
	return &authRepositoryImpl{db: db}
}

// UpsertUser 按邮箱插入或更新用户
func (r *authRepositoryImpl) UpsertUser(user *model.User) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_login_at"}),
	}).Create(user).Error
	return wrapStorage("upsert user", err)
}

// GetUserByID 获取用户
func (r *authRepositoryImpl) GetUserByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, wrapStorage("get user", err)
	}
	return &user, nil
}

// GetUserByEmail 按邮箱获取用户
func (r *authRepositoryImpl) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, wrapStorage("get user by email", err)
	}
	return &user, nil
}
