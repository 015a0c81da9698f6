package services

import (
	"errors"
	"fmt"
	"strings"

	"taskboard/internal/models"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

type RegistrationRequest struct {
	FirstName string `form:"first_name" json:"first_name" validate:"required,max=250"`
	LastName  string `form:"last_name" json:"last_name" validate:"required,max=250"`
	Email     string `form:"email" json:"email" validate:"required,email,max=250"`
	Password  string `form:"password" json:"password" validate:"required,min=8,max=72"`
}

type RegisterService interface {
	RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error)
}

type RegisterServiceImpl struct {
	cost     int
	avatars  *AvatarPicker
	validate *validator.Validate
}

func NewRegisterService(cost int, avatars *AvatarPicker) *RegisterServiceImpl {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &RegisterServiceImpl{
		cost:     cost,
		avatars:  avatars,
		validate: validator.New(),
	}
}

func (s *RegisterServiceImpl) normalize(req *RegistrationRequest) error {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = models.NormalizeEmail(req.Email)

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return validationError("%s is invalid (%s)", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return validationError("%v", err)
	}
	return nil
}

func (s *RegisterServiceImpl) RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error) {
	if err := s.normalize(&req); err != nil {
		return nil, err
	}

	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PasswordHash:   string(hashedPassword),
		AvatarLocation: s.avatars.Pick(),
	}

	if err := db.Omit("AuthoredTasks").Create(&user).Error; err != nil {
		// a concurrent signup won the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}
