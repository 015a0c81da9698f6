package services

import (
	"errors"
	"fmt"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/models"
)

func (s *ServiceSuite) TestRegisterUser_NormalizesAndHashes() {
	user := s.signup("Alice", "  Alice@Example.COM ")

	s.Equal("alice@example.com", user.Email)
	s.NotEqual("password123", user.PasswordHash)
	s.True(VerifyPassword(user.PasswordHash, "password123"))
	s.Equal("owl.png", user.AvatarLocation)
	s.NotZero(user.ID)
}

func (s *ServiceSuite) TestRegisterUser_DuplicateEmail() {
	s.signup("Alice", "alice@example.com")

	_, err := s.register.RegisterUser(s.db, RegistrationRequest{
		FirstName: "Other",
		LastName:  "Alice",
		Email:     "ALICE@example.com",
		Password:  "password456",
	})
	s.ErrorIs(err, ErrDuplicateEmail)
	s.Equal(int64(1), s.count(&models.User{}))
}

func (s *ServiceSuite) TestRegisterUser_Validation() {
	tests := []struct {
		name string
		req  RegistrationRequest
	}{
		{"missing first name", RegistrationRequest{LastName: "L", Email: "a@b.co", Password: "password123"}},
		{"blank last name", RegistrationRequest{FirstName: "F", LastName: "   ", Email: "a@b.co", Password: "password123"}},
		{"bad email", RegistrationRequest{FirstName: "F", LastName: "L", Email: "not-an-email", Password: "password123"}},
		{"short password", RegistrationRequest{FirstName: "F", LastName: "L", Email: "a@b.co", Password: "short"}},
	}

	for _, tt := range tests {
		_, err := s.register.RegisterUser(s.db, tt.req)
		s.ErrorIs(err, ErrValidation, tt.name)
	}
	s.Equal(int64(0), s.count(&models.User{}))
}

func (s *ServiceSuite) TestLoginUser() {
	s.signup("Alice", "alice@example.com")

	user, err := s.auth.LoginUser(s.db, "Alice@Example.com", "password123")
	s.Require().NoError(err)
	s.Equal("alice@example.com", user.Email)

	_, err = s.auth.LoginUser(s.db, "alice@example.com", "wrong-password")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.auth.LoginUser(s.db, "nobody@example.com", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestSessionLifecycle() {
	alice := s.signup("Alice", "alice@example.com")

	token, session, err := s.auth.CreateSession(s.db, alice.ID)
	s.Require().NoError(err)
	s.NotEmpty(token)

	user, got, err := s.auth.ValidateSession(s.db, token)
	s.Require().NoError(err)
	s.Equal(alice.ID, user.ID)
	s.Equal(session.ID, got.ID)

	s.Require().NoError(s.auth.RevokeSession(s.db, token))
	_, _, err = s.auth.ValidateSession(s.db, token)
	s.ErrorIs(err, ErrInvalidSession)
	s.ErrorIs(err, ErrInvalidCredentials)

	// revoking twice is harmless
	s.NoError(s.auth.RevokeSession(s.db, token))
}

func (s *ServiceSuite) TestValidateSession_RejectsBadTokens() {
	alice := s.signup("Alice", "alice@example.com")
	token, _, err := s.auth.CreateSession(s.db, alice.ID)
	s.Require().NoError(err)

	other := NewAuthService(config.AuthConfig{SessionSecret: "other-secret", SessionTTL: time.Hour, Issuer: "taskboard-test"})
	_, _, err = other.ValidateSession(s.db, token)
	s.ErrorIs(err, ErrInvalidSession, "wrong secret")

	foreign := NewAuthService(config.AuthConfig{SessionSecret: "test-secret", SessionTTL: time.Hour, Issuer: "someone-else"})
	_, _, err = foreign.ValidateSession(s.db, token)
	s.ErrorIs(err, ErrInvalidSession, "wrong issuer")

	_, _, err = s.auth.ValidateSession(s.db, "garbage")
	s.ErrorIs(err, ErrInvalidSession)

	// a valid token whose row is gone
	s.Require().NoError(s.db.Where("1 = 1").Delete(&models.Session{}).Error)
	_, _, err = s.auth.ValidateSession(s.db, token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSession_Expired() {
	alice := s.signup("Alice", "alice@example.com")
	now := time.Now()
	s.auth.now = func() time.Time { return now }

	token, _, err := s.auth.CreateSession(s.db, alice.ID)
	s.Require().NoError(err)

	now = now.Add(2 * time.Hour)
	_, _, err = s.auth.ValidateSession(s.db, token)
	s.True(errors.Is(err, ErrInvalidSession))
}

func (s *ServiceSuite) TestCleanupSessions() {
	alice := s.signup("Alice", "alice@example.com")
	now := time.Now()
	s.auth.now = func() time.Time { return now }

	_, _, err := s.auth.CreateSession(s.db, alice.ID)
	s.Require().NoError(err)
	revokedToken, _, err := s.auth.CreateSession(s.db, alice.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.auth.RevokeSession(s.db, revokedToken))

	now = now.Add(30 * time.Minute)
	active, _, err := s.auth.CreateSession(s.db, alice.ID)
	s.Require().NoError(err)

	// the first session has expired, the third has not
	now = now.Add(45 * time.Minute)
	removed, err := s.auth.CleanupSessions(s.db)
	s.Require().NoError(err)
	s.Equal(int64(2), removed)
	s.Equal(int64(1), s.count(&models.Session{}))

	_, _, err = s.auth.ValidateSession(s.db, active)
	s.NoError(err)
}

func (s *ServiceSuite) TestRegisterUser_ConcurrentSignupsOneWins() {
	const signups = 4
	errs := make(chan error, signups)
	for i := 0; i < signups; i++ {
		go func(i int) {
			_, err := s.register.RegisterUser(s.db, RegistrationRequest{
				FirstName: "Racer",
				LastName:  fmt.Sprint(i),
				Email:     "racer@example.com",
				Password:  "password123",
			})
			errs <- err
		}(i)
	}

	var created int
	for i := 0; i < signups; i++ {
		if err := <-errs; err == nil {
			created++
		} else {
			s.ErrorIs(err, ErrDuplicateEmail)
		}
	}
	s.Equal(1, created)
	s.Equal(int64(1), s.count(&models.User{}))
}
