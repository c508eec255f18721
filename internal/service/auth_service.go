package service

import (
	"context"
	"crypto/rand"
	"enem_quiz_backend/internal/config"
	"enem_quiz_backend/internal/repository"
	"enem_quiz_backend/internal/util"
	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/logger"
	"enem_quiz_backend/pkg/monitoring"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService signs users in with an emailed one-time passcode and issues JWTs.
// Codes are stored as bcrypt hashes in redis and expire after the configured TTL.
type AuthService struct {
	UserRepo *repository.UserRepository
	Redis    *redis.Client
	Mailer   Mailer
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, rdb *redis.Client, mailer Mailer, cfg *config.Config) *AuthService {
	if mailer == nil {
		mailer = LogMailer{From: cfg.OTP.From}
	}
	return &AuthService{
		UserRepo: userRepo,
		Redis:    rdb,
		Mailer:   mailer,
		Cfg:      cfg,
	}
}

type LoginResult struct {
	Token   string          `json:"token"`
	Session answers.Session `json:"session"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", util.ErrInvalidEmail
	}
	return email, nil
}

func generateCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// SendOTP issues a fresh code for email, replacing any previous one and resetting the
// attempt counter.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	code, err := generateCode(s.Cfg.OTP.Length)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	pipe := s.Redis.TxPipeline()
	pipe.Set(ctx, util.KeyOTP+email, hash, s.Cfg.OTP.TTL)
	pipe.Del(ctx, util.KeyOTPAttempts+email)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	body := fmt.Sprintf("Seu código de acesso é %s. Ele expira em %d minutos.", code, int(s.Cfg.OTP.TTL.Minutes()))
	if err := s.Mailer.Send(ctx, email, "Seu código de acesso", body); err != nil {
		s.Redis.Del(ctx, util.KeyOTP+email)
		return fmt.Errorf("send otp: %w", err)
	}

	monitoring.OTPEvents.WithLabelValues("sent").Inc()
	return nil
}

// VerifyOTP checks code against the stored hash. After MaxAttempts failures the code
// is discarded and a new one must be requested.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, util.ErrMissingFields
	}

	hash, err := s.Redis.Get(ctx, util.KeyOTP+email).Bytes()
	if errors.Is(err, redis.Nil) {
		monitoring.OTPEvents.WithLabelValues("expired").Inc()
		return nil, util.ErrInvalidOTP
	}
	if err != nil {
		return nil, err
	}

	attempts, err := s.Redis.Incr(ctx, util.KeyOTPAttempts+email).Result()
	if err != nil {
		return nil, err
	}
	if attempts == 1 {
		s.Redis.Expire(ctx, util.KeyOTPAttempts+email, s.Cfg.OTP.TTL)
	}
	if attempts > int64(s.Cfg.OTP.MaxAttempts) {
		s.Redis.Del(ctx, util.KeyOTP+email, util.KeyOTPAttempts+email)
		monitoring.OTPEvents.WithLabelValues("locked").Inc()
		return nil, util.ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
		monitoring.OTPEvents.WithLabelValues("rejected").Inc()
		return nil, util.ErrInvalidOTP
	}
	s.Redis.Del(ctx, util.KeyOTP+email, util.KeyOTPAttempts+email)

	user, err := s.UserRepo.FindOrCreateByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	token, claims, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	monitoring.OTPEvents.WithLabelValues("verified").Inc()
	logger.Log.Info("User signed in", zap.String("userId", user.ID))

	sess := SessionFromClaims(claims)
	sess.Token = token
	return &LoginResult{Token: token, Session: sess}, nil
}

// SignOut revokes the token behind claims until it would have expired anyway.
func (s *AuthService) SignOut(ctx context.Context, claims *util.Claims) error {
	if claims == nil {
		return util.ErrUnauthorized
	}
	ttl := claims.TokenTTL()
	if claims.ID == "" || ttl <= 0 {
		return nil
	}
	return s.Redis.Set(ctx, util.KeyRevoked+claims.ID, "1", ttl).Err()
}

func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.Redis.Exists(ctx, util.KeyRevoked+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SessionFromClaims is the session view of a verified token, without the token itself.
func SessionFromClaims(claims *util.Claims) answers.Session {
	sess := answers.Session{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return sess
}
