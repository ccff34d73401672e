package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/campusline/platform/shared/errs"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor used for every stored password.
const BcryptCost = 10

// DefaultTokenTTL applies when no expiry is configured.
const DefaultTokenTTL = time.Hour

var ErrInvalidToken = errs.New(errs.Authentication, "Not authorized, token failed")

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Claims is the JWT payload.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Service issues and verifies session tokens signed with a process-wide secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{secret: secret, ttl: ttl, now: time.Now}
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := Claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// VerifyToken returns the user id carried by a valid, unexpired token.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", wrapTokenError(err)
	}
	if !token.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

func wrapTokenError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return errs.Wrap(errs.Authentication, ErrInvalidToken.Message, fmt.Errorf("token expired: %w", err))
	}
	return errs.Wrap(errs.Authentication, ErrInvalidToken.Message, err)
}
