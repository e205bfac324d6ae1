package repository

import (
	"context"

	"gorm.io/gorm"

	"inquirydesk/internal/model"
)

// AdminUserRepository defines admin credential persistence operations.
type AdminUserRepository interface {
	Create(ctx context.Context, user *model.AdminUser) error
	FindByID(ctx context.Context, id uint) (*model.AdminUser, error)
	FindByUsername(ctx context.Context, username string) (*model.AdminUser, error)
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
}

type adminUserRepository struct {
	db *gorm.DB
}

// NewAdminUserRepository builds a GORM-backed repository.
func NewAdminUserRepository(db *gorm.DB) AdminUserRepository {
	return &adminUserRepository{db: db}
}

func (r *adminUserRepository) Create(ctx context.Context, user *model.AdminUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *adminUserRepository) FindByID(ctx context.Context, id uint) (*model.AdminUser, error) {
	var user model.AdminUser
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *adminUserRepository) FindByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	var user model.AdminUser
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *adminUserRepository) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	return r.db.WithContext(ctx).Model(&model.AdminUser{ID: id}).Update("password_hash", hash).Error
}
