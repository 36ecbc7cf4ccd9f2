package service

import (
	"context"
	"errors"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
	"gorm.io/gorm"
)

type UserService interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id uint) (model.User, error)
	// IsPatient reports whether id names an existing user with the patient role.
	IsPatient(ctx context.Context, id uint) (bool, error)
}

type GormUserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *GormUserService {
	return &GormUserService{db: db}
}

func (s *GormUserService) FindByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, util.WrapError(util.ErrNotFound, "user %s", email)
	}
	if err != nil {
		return model.User{}, err
	}
	util.UserRoleCacheSet(user.ID, user.RoleID)
	return user, nil
}

func (s *GormUserService) FindByID(ctx context.Context, id uint) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, util.WrapError(util.ErrNotFound, "user %d", id)
	}
	if err != nil {
		return model.User{}, err
	}
	util.UserRoleCacheSet(user.ID, user.RoleID)
	return user, nil
}

func (s *GormUserService) IsPatient(ctx context.Context, id uint) (bool, error) {
	if roleID, ok := util.UserRoleCacheGet(id); ok {
		return roleID == model.RolePatient, nil
	}

	user, err := s.FindByID(ctx, id)
	if errors.Is(err, util.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsPatient(), nil
}
