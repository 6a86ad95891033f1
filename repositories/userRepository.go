package repositories

import (
	"RetinaCare/cache"
	"RetinaCare/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

const (
	UserCacheExpiry = 7 * 24 * time.Hour
)

type UserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUserPassword(ctx context.Context, userID string, hashedPassword string) error
	DeleteUserCache(ctx context.Context, identifier string) error
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewUserRepository(db *gorm.DB, cache *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: cache}
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if err := r.cache.Delete(ctx, r.getUserCacheKey(user.Email)); err != nil {
		log.Printf("Failed to delete user cache: %v", err)
	}
	return nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getUserCacheKey(userID)
	cachedUser, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedUser != "" {
		var user models.User
		if err := json.Unmarshal([]byte(cachedUser), &user); err == nil {
			return &user, nil
		}
	} else if err != nil {
		log.Printf("Failed to get user from cache: %v", err)
	}

	var user models.User
	err = r.db.Select("id, full_name, email, role, is_active, created_at").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, cacheKey, userJSON, UserCacheExpiry); err != nil {
		log.Printf("Failed to set user in cache: %v", err)
	}

	return &user, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var users []models.User
	err := r.db.Select("id, full_name, email, role, is_active, created_at").
		Where("role = ?", role).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateUserPassword(ctx context.Context, userID string, hashedPassword string) error {
	err := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return r.cache.Delete(ctx, r.getUserCacheKey(userID))
}

func (r *userRepository) DeleteUserCache(ctx context.Context, identifier string) error {
	return r.cache.Delete(ctx, r.getUserCacheKey(identifier))
}

func (r *userRepository) getUserCacheKey(identifier string) string {
	return fmt.Sprintf("user_cache:%s", identifier)
}
