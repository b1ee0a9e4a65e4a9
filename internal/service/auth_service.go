// Package service holds the business rules that sit between the HTTP handlers and the repositories.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"moneyshelf/internal/mailer"
	"moneyshelf/internal/middleware"
	"moneyshelf/internal/models"
	"moneyshelf/internal/repository"
	"moneyshelf/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	// OTPTTL is how long a reset code stays valid.
	OTPTTL = 10 * time.Minute

	otpMin   = 100000
	otpRange = 900000
)

const invalidCredentials = "Invalid credentials"

type AuthService struct {
	userRepo repository.UserRepository
	sender   mailer.OTPSender
	now      func() time.Time
	cost     int
}

// RegisterInput is the payload for a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func NewAuthService(userRepo repository.UserRepository, sender mailer.OTPSender) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sender:   sender,
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates an account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := validation.SanitizeText(in.Username)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, models.NewConflictError("Email already registered")
	} else if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Icon:     models.DefaultIcon,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords produce the same error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError(invalidCredentials)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}
	return user, nil
}

// IssueOTP stores a fresh 6-digit code for the account, replacing any earlier
// one, hands it to the sender and returns it.
func (s *AuthService) IssueOTP(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}

	code, err := generateOTP()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if err := s.userRepo.SetOTP(ctx, user.ID, code, s.now().Add(OTPTTL)); err != nil {
		return "", err
	}

	if s.sender != nil {
		if err := s.sender.SendOTP(ctx, user.Email, code); err != nil {
			middleware.Logger.WarnContext(ctx, "otp delivery failed", "user_id", user.ID, "error", err)
		}
	}
	return code, nil
}

// VerifyOTP succeeds only for an exact, unexpired code. The code stays stored.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid or expired code")
		}
		return nil, err
	}
	if !user.OTPValid(code, s.now()) {
		return nil, models.NewUnauthorizedError("Invalid or expired code")
	}
	return user, nil
}

func (s *AuthService) ClearOTP(ctx context.Context, userID uint) error {
	return s.userRepo.ClearOTP(ctx, userID)
}

// ResetPassword verifies the code, stores the new hash and clears the code.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.VerifyOTP(ctx, email, code)
	if err != nil {
		return err
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	return s.userRepo.ClearOTP(ctx, user.ID)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}
