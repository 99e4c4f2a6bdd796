// Package auth signs admins in with a password and keeps their sessions in
// Redis behind an HS256 bearer token.
package auth

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/metrics"
	"membership-signup/internal/models"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionPrefix = "admin:session:"
	attemptPrefix = "admin:login:"
	issuer        = "membership-signup"
)

type Config struct {
	JWTSecret   []byte
	SessionTTL  time.Duration
	MaxAttempts int
	Window      time.Duration
}

// Claims carried by an admin token. The token id is the session id.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	users   models.AdminUserRepository
	rdb     redis.Cmdable
	cfg     Config
	logger  logger.Logger
	now     func() time.Time
	compare func(hash, password []byte) error
}

var (
	placeholderOnce sync.Once
	placeholder     []byte
)

// placeholderHash is compared against when the email is unknown so both
// failure paths cost one bcrypt check.
func placeholderHash() []byte {
	placeholderOnce.Do(func() {
		placeholder, _ = bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
	})
	return placeholder
}

func NewService(users models.AdminUserRepository, rdb redis.Cmdable, cfg Config, log logger.Logger) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 8 * time.Hour
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return &Service{
		users:   users,
		rdb:     rdb,
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
		compare: bcrypt.CompareHashAndPassword,
	}
}

// HashPassword returns a bcrypt hash for a new admin account.
func HashPassword(password string) (string, error) {
	if len(strings.TrimSpace(password)) < 8 {
		return "", errors.NewValidationError(map[string]string{"password": "Password must be at least 8 characters"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// SignIn checks the credentials and opens a session. Failed attempts are
// counted per email; once MaxAttempts is reached within Window further
// attempts are refused until the window expires.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *models.AdminSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, errors.NewValidationError(map[string]string{"credentials": "Email and password are required"})
	}

	attemptKey := attemptPrefix + email
	n, err := s.rdb.Get(ctx, attemptKey).Int()
	if err != nil && !stderrors.Is(err, redis.Nil) {
		return "", nil, errors.NewExternalServiceError("redis", err)
	}
	if n >= s.cfg.MaxAttempts {
		ttl, _ := s.rdb.TTL(ctx, attemptKey).Result()
		if ttl <= 0 {
			ttl = s.cfg.Window
		}
		metrics.AdminLogins.WithLabelValues("throttled").Inc()
		return "", nil, errors.NewTooManyAttemptsError(ttl)
	}

	user, err := s.users.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.CodeOf(err) != errors.ErrCodeResourceNotFound {
			return "", nil, err
		}
		_ = s.compare(placeholderHash(), []byte(password))
		return "", nil, s.failedAttempt(ctx, attemptKey, "unknown email")
	}
	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, s.failedAttempt(ctx, attemptKey, "wrong password")
	}

	if err := s.rdb.Del(ctx, attemptKey).Err(); err != nil {
		s.logger.Warn("failed to clear login attempts", map[string]interface{}{"error": err})
	}

	now := s.now().UTC()
	sess := &models.AdminSession{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	token, err := s.sign(sess)
	if err != nil {
		return "", nil, errors.NewInternalError(err)
	}
	body, _ := json.Marshal(sess)
	if err := s.rdb.Set(ctx, sessionPrefix+sess.ID, body, s.cfg.SessionTTL).Err(); err != nil {
		return "", nil, errors.NewExternalServiceError("redis", err)
	}

	metrics.AdminLogins.WithLabelValues("success").Inc()
	s.logger.Info("admin signed in", map[string]interface{}{"userId": user.ID, "sessionId": sess.ID})
	return token, sess, nil
}

func (s *Service) failedAttempt(ctx context.Context, key, reason string) error {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err == nil && n == 1 {
		err = s.rdb.Expire(ctx, key, s.cfg.Window).Err()
	}
	if err != nil {
		s.logger.Warn("failed to record login attempt", map[string]interface{}{"error": err})
	}
	metrics.AdminLogins.WithLabelValues("failure").Inc()
	s.logger.Info("admin sign-in rejected", map[string]interface{}{"reason": reason, "attempts": n})
	return errors.NewAuthenticationError("invalid email or password")
}

// Session returns the live session behind token.
func (s *Service) Session(ctx context.Context, token string) (*models.AdminSession, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, errors.NewAuthenticationError(err.Error())
	}
	raw, err := s.rdb.Get(ctx, sessionPrefix+claims.ID).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.NewAuthenticationError("session expired or signed out")
	}
	if err != nil {
		return nil, errors.NewExternalServiceError("redis", err)
	}
	var sess models.AdminSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, errors.NewInternalError(err)
	}
	return &sess, nil
}

// SignOut revokes the session behind token. Unknown sessions are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return errors.NewAuthenticationError(err.Error())
	}
	if err := s.rdb.Del(ctx, sessionPrefix+claims.ID).Err(); err != nil {
		return errors.NewExternalServiceError("redis", err)
	}
	s.logger.Info("admin signed out", map[string]interface{}{"sessionId": claims.ID})
	return nil
}

func (s *Service) sign(sess *models.AdminSession) (string, error) {
	claims := Claims{
		UID:   sess.UserID,
		Email: sess.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    issuer,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.JWTSecret)
}

func (s *Service) parse(token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.cfg.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.ID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return c, nil
}
