package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"contactbook/internal/logging"
	"contactbook/internal/sms"
	"contactbook/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPhoneRequired      = errors.New("phone is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

// Argon2id parameters.
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16

	resetCodeDigits = 6
)

// Service handles authentication business logic.
type Service struct {
	userRepo             *user.Repository
	refreshTokenRepo     RefreshTokenRepository
	resetCodeRepo        ResetCodeRepository
	tokenService         TokenService
	smsSender            sms.Sender
	logger               *logging.Logger
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
	resetCodeTTL         time.Duration
}

func NewService(
	userRepo *user.Repository,
	refreshTokenRepo RefreshTokenRepository,
	resetCodeRepo ResetCodeRepository,
	tokenService TokenService,
	smsSender sms.Sender,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
	refreshTokenDuration time.Duration,
	resetCodeTTL time.Duration,
) *Service {
	return &Service{
		userRepo:             userRepo,
		refreshTokenRepo:     refreshTokenRepo,
		resetCodeRepo:        resetCodeRepo,
		tokenService:         tokenService,
		smsSender:            smsSender,
		logger:               logger,
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
		resetCodeTTL:         resetCodeTTL,
	}
}

// RegisterInput carries the signup fields.
type RegisterInput struct {
	Username   string
	Password   string
	Phone      string
	Age        *int
	MACAddress *string
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, ErrUsernameRequired
	}
	if strings.TrimSpace(input.Phone) == "" {
		return nil, ErrPhoneRequired
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}
	if len(input.Password) < 8 {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, input.Username, passwordHash, input.Phone, input.Age, input.MACAddress)
	if err != nil {
		return nil, err
	}

	return newUser, nil
}

// Login authenticates a user and returns a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (*AuthTokens, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.verifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(ctx, existingUser.ID, existingUser.Username)
}

// RefreshAccessToken rotates a refresh token into a new token pair. The old
// refresh token is revoked before new tokens are issued so it cannot be
// replayed.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	rt, err := s.refreshTokenRepo.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) || errors.Is(err, ErrRefreshTokenExpired) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if err := s.refreshTokenRepo.Revoke(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old refresh token: %w", err)
	}

	existingUser, err := s.userRepo.GetByID(ctx, rt.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return s.generateTokens(ctx, existingUser.ID, existingUser.Username)
}

// RevokeRefreshToken invalidates a refresh token (logout).
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.refreshTokenRepo.Revoke(ctx, refreshToken)
}

// RequestPasswordReset issues a reset code for the account registered under
// the given phone number. Always returns nil so callers cannot probe which
// numbers are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, phone string) error {
	existingUser, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for password reset", "error", err)
		return nil
	}

	code, err := generateResetCode()
	if err != nil {
		s.logger.Warn("failed to generate reset code", "error", err)
		return nil
	}

	if err := s.resetCodeRepo.Store(ctx, existingUser.Phone, code, s.resetCodeTTL); err != nil {
		s.logger.Warn("failed to store reset code", "error", err)
		return nil
	}

	// Deliver in the background; a slow gateway must not block the request.
	go func() {
		smsCtx := context.Background()
		if err := s.smsSender.SendResetCode(smsCtx, existingUser.Phone, code); err != nil {
			s.logger.Warn("failed to send reset code", "phone", existingUser.Phone, "error", err)
		}
	}()

	return nil
}

// ResetPassword verifies the reset code and replaces the password. The code
// is consumed on first success and every refresh token the user held is
// revoked.
func (s *Service) ResetPassword(ctx context.Context, phone, code, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	if err := s.resetCodeRepo.Verify(ctx, phone, code); err != nil {
		return err
	}

	existingUser, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrResetCodeNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, existingUser.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.resetCodeRepo.Delete(ctx, phone); err != nil {
		s.logger.Warn("failed to delete reset code", "error", err)
	}

	if err := s.refreshTokenRepo.RevokeAllForUser(ctx, existingUser.ID); err != nil {
		s.logger.Warn("failed to revoke user tokens after password reset", "error", err)
	}

	return nil
}

// generateTokens creates an access token and a stored refresh token.
func (s *Service) generateTokens(ctx context.Context, userID uuid.UUID, username string) (*AuthTokens, error) {
	accessToken, err := s.tokenService.CreateToken(userID, username, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshTokenDuration)
	if err := s.refreshTokenRepo.Store(ctx, userID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
	}, nil
}

// hashPassword creates an argon2id hash of the password.
func (s *Service) hashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	// Encoded as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		encodedSalt,
		encodedHash,
	), nil
}

// verifyPassword checks a password against the stored encoded hash.
func (s *Service) verifyPassword(encodedHash, password string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	inputHash := argon2.IDKey(
		[]byte(password),
		salt,
		iterations,
		memory,
		threads,
		uint32(len(decodedHash)),
	)

	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}

// generateRandomToken creates a cryptographically secure opaque token.
func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// generateResetCode creates a zero-padded 6-digit code.
func generateResetCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < resetCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", resetCodeDigits, n), nil
}
