package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nest/backend/internal/model"
)

// ErrLastAdmin is returned by the guarded mutations when the change would
// leave the system without an active Admin. The guard runs inside the same
// transaction as the mutation, so two admins demoting each other
// concurrently cannot both succeed.
var ErrLastAdmin = errors.New("operation would remove the last active admin")

// UserRepository is the profiles table access interface.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, search, role, status string, offset, limit int) ([]model.User, int64, error)
	ListAdmins(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	SetRole(ctx context.Context, id, role string) error
	SetStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	CountActiveAdmins(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo creates the GORM-backed UserRepository.
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, search, role, status string, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if search != "" {
		like := "%" + search + "%"
		db = db.Where("full_name ILIKE ? OR email ILIKE ? OR department ILIKE ?", like, like, like)
	}
	if role != "" {
		db = db.Where("role = ?", role)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepo) ListAdmins(ctx context.Context) ([]model.User, error) {
	var admins []model.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND status = ?", model.RoleAdmin, model.UserStatusActive).
		Find(&admins).Error
	return admins, err
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// SetRole changes a user's role. Demoting an Admin is guarded against
// removing the last one.
func (r *userRepo) SetRole(ctx context.Context, id, role string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if user.Role == model.RoleAdmin && role != model.RoleAdmin {
			if err := lastAdminGuard(tx, id); err != nil {
				return err
			}
		}
		return tx.Model(&model.User{}).Where("user_id = ?", id).
			Update("role", role).Error
	})
}

// SetStatus suspends or reactivates a user. Suspending an Admin is guarded
// against removing the last active one.
func (r *userRepo) SetStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if user.Role == model.RoleAdmin && status != model.UserStatusActive {
			if err := lastAdminGuard(tx, id); err != nil {
				return err
			}
		}
		return tx.Model(&model.User{}).Where("user_id = ?", id).
			Update("status", status).Error
	})
}

// Delete soft-deletes a user, guarded for admins.
func (r *userRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if user.Role == model.RoleAdmin {
			if err := lastAdminGuard(tx, id); err != nil {
				return err
			}
		}
		return tx.Where("user_id = ?", id).Delete(&model.User{}).Error
	})
}

// lastAdminGuard locks the remaining active admin rows and fails when the
// user being mutated is the only one.
func lastAdminGuard(tx *gorm.DB, mutatedID string) error {
	var others []model.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ? AND status = ? AND user_id <> ?",
			model.RoleAdmin, model.UserStatusActive, mutatedID).
		Find(&others).Error; err != nil {
		return err
	}
	if len(others) == 0 {
		return ErrLastAdmin
	}
	return nil
}

func (r *userRepo) CountActiveAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("role = ? AND status = ?", model.RoleAdmin, model.UserStatusActive).
		Count(&n).Error
	return n, err
}

func (r *userRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}
