package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Username  string    `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	IsAdmin   *bool     `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	IsAdmin  *bool  `json:"is_admin"`
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	count, err := utils.ResourceCountWhere[User](ctx, "username = ?", input.Username)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &utils.AppError{Code: utils.ErrorCodeConflict, Message: "username already taken"}
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	isAdmin := false
	if input.IsAdmin != nil && *input.IsAdmin {
		isAdmin = true
	}

	user := User{
		Name:     input.Name,
		Username: input.Username,
		Password: string(hashed),
		IsAdmin:  &isAdmin,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &user, nil
}

// Login checks credentials and issues a bearer token.
func Login(ctx context.Context, username string, password string) (string, *User, error) {
	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return "", nil, utils.ErrorForbidden
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return "", nil, utils.ErrorForbidden
	}

	token, err := utils.JwtGenerate(user.ID, user.Name, utils.DereferencePtr(user.IsAdmin))
	if err != nil {
		return "", nil, utils.NewInternalError(err)
	}
	return token, &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id)
}
