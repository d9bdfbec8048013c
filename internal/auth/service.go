package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotFound      = errors.New("email not found")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrOTPExpired         = errors.New("OTP expired")
)

// Mailer delivers an OTP code to an address. Fire and forget from the
// service's point of view: it is only invoked after the OTP row committed.
type Mailer interface {
	SendOTP(ctx context.Context, toEmail, code string) error
}

type Config struct {
	JWT              JWTConfig `mapstructure:"jwt"`
	OTPExpireMinutes int       `mapstructure:"otp_expire_minutes"`
}

type Service struct {
	pool   *pgxpool.Pool
	mailer Mailer
	config Config
}

func NewService(pool *pgxpool.Pool, mailer Mailer, config Config) *Service {
	if config.OTPExpireMinutes <= 0 {
		config.OTPExpireMinutes = 10
	}
	return &Service{pool: pool, mailer: mailer, config: config}
}

// Login checks credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	var id uuid.UUID
	var passwordHash string
	err := s.pool.QueryRow(ctx,
		`SELECT id, password_hash FROM users WHERE username = $1`, username).
		Scan(&id, &passwordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("query user: %w", err)
	}

	if !CheckPassword(password, passwordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.config.JWT, id.String(), username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// RequestReset validates the new password pair, stores an OTP row with the
// pending bcrypt hash, then dispatches the code by email. The OTP commit
// happens before the Brevo call on purpose: delivery failure surfaces as an
// error but the issued code stays usable.
func (s *Service) RequestReset(ctx context.Context, email, newPassword, confirmPassword string) (int, error) {
	if newPassword != confirmPassword {
		return 0, ErrPasswordMismatch
	}
	if len(newPassword) < 8 {
		return 0, ErrWeakPassword
	}

	var userID uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrEmailNotFound
		}
		return 0, fmt.Errorf("query user by email: %w", err)
	}

	code, err := GenerateOTP()
	if err != nil {
		return 0, err
	}

	pendingHash, err := HashPassword(newPassword)
	if err != nil {
		return 0, err
	}

	expiresAt := time.Now().UTC().Add(time.Duration(s.config.OTPExpireMinutes) * time.Minute)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO otp_records (email, otp_code, pending_password_hash, expires_at)
		VALUES ($1, $2, $3, $4)`,
		email, code, pendingHash, expiresAt)
	if err != nil {
		return 0, fmt.Errorf("insert otp record: %w", err)
	}

	// Strictly after the commit: never hold a transaction open over network I/O.
	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		slog.Error("Failed to deliver OTP email", "email", email, "error", err)
		return 0, fmt.Errorf("send otp email: %w", err)
	}

	return s.config.OTPExpireMinutes, nil
}

// VerifyReset consumes the newest unused matching OTP and applies the
// pending password hash to the account.
func (s *Service) VerifyReset(ctx context.Context, email, otpCode string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var otpID int64
		var pendingHash string
		var expiresAt time.Time
		err := tx.QueryRow(ctx, `
			SELECT id, pending_password_hash, expires_at
			FROM otp_records
			WHERE email = $1 AND otp_code = $2 AND used = false
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE`,
			email, otpCode).Scan(&otpID, &pendingHash, &expiresAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvalidOTP
			}
			return fmt.Errorf("query otp record: %w", err)
		}

		if expiresAt.Before(time.Now().UTC()) {
			return ErrOTPExpired
		}

		tag, err := tx.Exec(ctx, `
			UPDATE users SET password_hash = $2, updated_at = now() WHERE email = $1`,
			email, pendingHash)
		if err != nil {
			return fmt.Errorf("apply new password: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrEmailNotFound
		}

		if _, err := tx.Exec(ctx, `UPDATE otp_records SET used = true WHERE id = $1`, otpID); err != nil {
			return fmt.Errorf("mark otp used: %w", err)
		}
		return nil
	})
}
