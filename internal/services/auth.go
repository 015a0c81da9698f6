package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/models"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionClaims is the payload of the session cookie. The token only names a
// session row; the row decides whether the session is still valid.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type AuthService interface {
	LoginUser(db *gorm.DB, email, password string) (*models.User, error)
	CreateSession(db *gorm.DB, userID uint) (string, *models.Session, error)
	ValidateSession(db *gorm.DB, token string) (*models.User, *models.Session, error)
	RevokeSession(db *gorm.DB, token string) error
	CleanupSessions(db *gorm.DB) (int64, error)
}

type AuthServiceImpl struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(cfg config.AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{
		secret: []byte(cfg.SessionSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.SessionTTL,
		now:    time.Now,
	}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

// LoginUser returns ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (s *AuthServiceImpl) LoginUser(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AuthServiceImpl) CreateSession(db *gorm.DB, userID uint) (string, *models.Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := s.now()
	session := models.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := db.Create(&session).Error; err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	claims := SessionClaims{
		SessionID: id.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return token, &session, nil
}

func (s *AuthServiceImpl) parse(token string) (*SessionClaims, uuid.UUID, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	id, err := uuid.FromString(claims.SessionID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: bad session id", ErrInvalidSession)
	}
	return claims, id, nil
}

// ValidateSession resolves a session token to its user. Unknown, expired and
// revoked sessions all yield ErrInvalidSession.
func (s *AuthServiceImpl) ValidateSession(db *gorm.DB, token string) (*models.User, *models.Session, error) {
	claims, id, err := s.parse(token)
	if err != nil {
		return nil, nil, err
	}

	var session models.Session
	if err := db.First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Active(s.now()) || strconv.FormatUint(uint64(session.UserID), 10) != claims.Subject {
		return nil, nil, ErrInvalidSession
	}

	var user models.User
	if err := db.First(&user, session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &user, &session, nil
}

// RevokeSession marks the token's session revoked. Revoking an already
// revoked or unknown session is not an error.
func (s *AuthServiceImpl) RevokeSession(db *gorm.DB, token string) error {
	_, id, err := s.parse(token)
	if err != nil {
		return err
	}

	now := s.now()
	err = db.Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", &now).Error
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// CleanupSessions deletes sessions that expired or were revoked.
func (s *AuthServiceImpl) CleanupSessions(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ? OR revoked_at IS NOT NULL", s.now()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
