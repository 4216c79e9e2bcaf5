package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormUserRepository implements the UserRepository interface
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM user repository
func NewGormUserRepository(db *gorm.DB) repository.UserRepository {
	return &GormUserRepository{
		db: db,
	}
}

// Users GORM model for database mapping
type Users struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"column:name"`
	Email     string `gorm:"column:email;unique"`
	Phone     string `gorm:"column:phone"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Users) TableName() string {
	return "users"
}

// AirlineCredentials GORM model for linked airline accounts
type AirlineCredentials struct {
	gorm.Model
	UserID        string `gorm:"column:user_id;size:64;uniqueIndex:ux_user_airline,priority:1"`
	AirlineCode   string `gorm:"column:airline_code;size:2;uniqueIndex:ux_user_airline,priority:2"`
	AccountNumber string `gorm:"column:account_number"`
	Username      string `gorm:"column:username"`
	Password      string `gorm:"column:password"`
	FirstName     string `gorm:"column:first_name"`
	LastName      string `gorm:"column:last_name"`
}

// TableName overrides the default table name
func (AirlineCredentials) TableName() string {
	return "airline_credentials"
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user Users
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, entity.ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &entity.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, nil
}

// FindCredential finds the user's linked account for an airline
func (r *GormUserRepository) FindCredential(ctx context.Context, userID, airlineCode string) (*entity.AirlineCredential, error) {
	var credential AirlineCredentials
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("airline_code = ?", strings.ToUpper(airlineCode)).
		First(&credential)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &entity.AirlineCredential{
		ID:            credential.ID,
		UserID:        credential.UserID,
		AirlineCode:   credential.AirlineCode,
		AccountNumber: credential.AccountNumber,
		Username:      credential.Username,
		Password:      credential.Password,
		FirstName:     credential.FirstName,
		LastName:      credential.LastName,
		CreatedAt:     credential.CreatedAt,
		UpdatedAt:     credential.UpdatedAt,
	}, nil
}

// AutoMigrate creates or updates the relational tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Airlines{}, &Users{}, &AirlineCredentials{})
}
