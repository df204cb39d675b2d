// Package auth implements phone-number login and the bearer tokens that
// identify a user to the API.
package auth

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/models"

	jwt "github.com/golang-jwt/jwt/v5"
)

const issuer = "nagarneuron"

// ErrInvalidToken covers malformed, expired and wrongly signed tokens.
var ErrInvalidToken = errors.New("auth: invalid token")

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// UserStore is the storage subset login needs.
type UserStore interface {
	FindOrCreateUserByPhone(ctx context.Context, phone, name string) (*models.User, bool, error)
}

type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    *logger.Logger
}

func NewService(store UserStore, secret string, ttl time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		log:    log.With("component", "auth"),
	}
}

// SetClock overrides time.Now. Test use only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// NormalizePhone strips spaces and dashes.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
}

// Login returns the user registered under phone, creating it on first use,
// and a fresh token for it.
func (s *Service) Login(ctx context.Context, phone, name string) (*models.User, string, error) {
	phone = NormalizePhone(phone)
	if !phonePattern.MatchString(phone) {
		return nil, "", apperr.Validation("invalid phone number", map[string]interface{}{"phone": "7 to 15 digits, optional leading +"})
	}
	user, created, err := s.store.FindOrCreateUserByPhone(ctx, phone, strings.TrimSpace(name))
	if err != nil {
		return nil, "", err
	}
	if created {
		s.log.Info("new user registered", "user_id", user.ID)
	}
	token, err := s.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Issue signs an HS256 token whose subject is the user id.
func (s *Service) Issue(userID uint) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates token and returns the user id it was issued for.
func (s *Service) Parse(token string) (uint, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
