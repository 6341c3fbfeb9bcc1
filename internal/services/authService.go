package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"galleria/internal/config"
	"galleria/internal/metrics"
	"galleria/internal/models"
	"galleria/internal/repositories"
	"galleria/internal/utils"
)

type AuthService interface {
	Register(ctx context.Context, creds models.Credentials) (*models.Admin, error)
	Login(ctx context.Context, creds models.Credentials) (*models.Admin, string, error)
	Logout(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*utils.Claims, error)
}

type authService struct {
	adminRepo   repositories.AdminRepository
	revocations repositories.RevocationStore
	validate    *validator.Validate
	secret      []byte
	tokenTTL    time.Duration
	// revoked remembers positive revocation lookups until the token expires.
	revoked *cache.Cache
}

func NewAuthService(adminRepo repositories.AdminRepository, revocations repositories.RevocationStore, cfg config.AuthConfig) AuthService {
	return &authService{
		adminRepo:   adminRepo,
		revocations: revocations,
		validate:    validator.New(),
		secret:      []byte(cfg.JWTSecret),
		tokenTTL:    cfg.TokenTTL,
		revoked:     cache.New(cfg.TokenTTL, 10*time.Minute),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, creds models.Credentials) (*models.Admin, error) {
	creds.Email = normalizeEmail(creds.Email)
	log.Debug().Str("email", creds.Email).Msg("Attempting to register admin")

	if err := s.validate.Struct(creds); err != nil {
		log.Warn().Err(err).Str("email", creds.Email).Msg("Invalid registration payload")
		return nil, validationError(err)
	}

	if _, err := s.adminRepo.FindByEmail(ctx, creds.Email); err == nil {
		log.Warn().Str("email", creds.Email).Msg("Admin with this email already exists")
		return nil, newError(ErrConflict, "an admin with this email already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		log.Error().Err(err).Str("email", creds.Email).Msg("Database error checking existing admin")
		return nil, fmt.Errorf("failed to check existing admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password during registration")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	admin := &models.Admin{
		Email:     creds.Email,
		Password:  string(hashed),
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.adminRepo.Create(ctx, admin)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn().Str("email", creds.Email).Msg("Admin email taken during insert")
			return nil, newError(ErrConflict, "an admin with this email already exists")
		}
		return nil, err
	}

	metrics.NewAdminsTotal.Inc()
	log.Info().Str("adminID", created.ID.Hex()).Str("email", created.Email).Msg("Admin registered successfully")
	return created, nil
}

func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.Admin, string, error) {
	creds.Email = normalizeEmail(creds.Email)
	log.Debug().Str("email", creds.Email).Msg("Attempting to log in admin")

	if creds.Email == "" || creds.Password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return nil, "", newError(ErrValidation, "email and password are required")
	}

	admin, err := s.adminRepo.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
			log.Warn().Str("email", creds.Email).Msg("Login attempt for unknown email")
			return nil, "", newError(ErrInvalidCredentials, "invalid email or password")
		}
		log.Error().Err(err).Str("email", creds.Email).Msg("Database error during login")
		return nil, "", fmt.Errorf("failed to find admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(creds.Password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("email", creds.Email).Msg("Login attempt with wrong password")
		return nil, "", newError(ErrInvalidCredentials, "invalid email or password")
	}

	token, err := utils.GenerateJWT(s.secret, admin.ID, admin.IsAdmin, s.tokenTTL)
	if err != nil {
		log.Error().Err(err).Str("adminID", admin.ID.Hex()).Msg("Error generating JWT for admin")
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("adminID", admin.ID.Hex()).Msg("Admin logged in successfully")
	return admin, token, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return newError(ErrValidation, "token is required")
	}

	claims, err := utils.ParseJWT(s.secret, token)
	if err != nil {
		log.Warn().Err(err).Msg("Logout with invalid token")
		return newError(ErrUnauthorized, "invalid or expired token")
	}
	expiresAt := claims.ExpiresAt.Time

	if err := s.revocations.Revoke(ctx, token, expiresAt); err != nil {
		log.Error().Err(err).Str("adminID", claims.ID).Msg("Failed to revoke token")
		return err
	}
	s.rememberRevoked(token, expiresAt)

	metrics.LogoutsTotal.Inc()
	log.Info().Str("adminID", claims.ID).Msg("Admin logged out successfully")
	return nil
}

func (s *authService) Verify(ctx context.Context, token string) (*utils.Claims, error) {
	claims, err := utils.ParseJWT(s.secret, token)
	if err != nil {
		log.Debug().Err(err).Msg("Token rejected")
		return nil, newError(ErrUnauthorized, "invalid or expired token")
	}

	if _, found := s.revoked.Get(token); found {
		return nil, newError(ErrUnauthorized, "token has been revoked")
	}
	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		log.Error().Err(err).Str("adminID", claims.ID).Msg("Failed to check token revocation")
		return nil, err
	}
	if revoked {
		s.rememberRevoked(token, claims.ExpiresAt.Time)
		return nil, newError(ErrUnauthorized, "token has been revoked")
	}
	return claims, nil
}

func (s *authService) rememberRevoked(token string, expiresAt time.Time) {
	if d := time.Until(expiresAt); d > 0 {
		s.revoked.Set(token, true, d)
	}
}
