package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/internal/modules/user/dto"
	"anoa.com/communityreview/internal/modules/user/repository"
	"anoa.com/communityreview/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid credentials", apperror.ErrUnauthorized)

// EventPublisher is told about every auth state transition.
type EventPublisher interface {
	SignedIn(ctx context.Context, identity dto.Identity) error
	SignedOut(ctx context.Context, identity dto.Identity) error
}

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Logout(ctx context.Context, claims *dto.Claims) error
	ParseToken(ctx context.Context, token string) (*dto.Claims, error)
}

type Options struct {
	Secret     string
	TTL        time.Duration
	AdminEmail string
}

type authService struct {
	repo       repository.UserRepository
	tokens     repository.TokenStore
	events     EventPublisher
	secret     []byte
	tokenTTL   time.Duration
	adminEmail string
	now        func() time.Time
}

func NewAuthService(repo repository.UserRepository, tokens repository.TokenStore, events EventPublisher, opts Options) AuthService {
	secret := opts.Secret
	if secret == "" {
		secret = "change-me"
		log.Warn().Msg("JWT_SECRET is not set, using an insecure default")
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	if tokens == nil {
		tokens = repository.NewRedisTokenStore(nil)
	}

	return &authService{
		repo:       repo,
		tokens:     tokens,
		events:     events,
		secret:     []byte(secret),
		tokenTTL:   ttl,
		adminEmail: NormalizeEmail(opts.AdminEmail),
		now:        time.Now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	input.Email = NormalizeEmail(input.Email)
	if err := input.Validate(); err != nil {
		return nil, apperror.New(http.StatusBadRequest, err.Error(), apperror.ErrInvalidInput)
	}

	email := input.Email
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.New(http.StatusConflict, "email already registered", apperror.ErrConflict)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: string(hashed),
	}
	profile := &entity.Profile{
		FullName: strings.TrimSpace(input.FullName),
		Nickname: strings.TrimSpace(input.Nickname),
		Email:    email,
		IsAdmin:  s.adminEmail != "" && email == s.adminEmail,
	}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.New(http.StatusConflict, "email already registered", apperror.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Bool("is_admin", profile.IsAdmin).Msg("user registered")

	return s.signIn(ctx, user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	if err := input.Validate(); err != nil {
		return nil, apperror.New(http.StatusBadRequest, err.Error(), apperror.ErrInvalidInput)
	}

	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.signIn(ctx, user)
}

func (s *authService) Logout(ctx context.Context, claims *dto.Claims) error {
	if claims == nil {
		return apperror.ErrUnauthorized
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if err := s.tokens.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}

	identity, err := claims.Identity()
	if err != nil {
		return apperror.ErrUnauthorized
	}
	s.publish(ctx, identity, false)
	return nil
}

func (s *authService) ParseToken(ctx context.Context, tokenString string) (*dto.Claims, error) {
	claims := &dto.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, apperror.New(http.StatusUnauthorized, "invalid or expired token", apperror.ErrUnauthorized)
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperror.New(http.StatusUnauthorized, "session has ended", apperror.ErrUnauthorized)
	}

	return claims, nil
}

func (s *authService) signIn(ctx context.Context, user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, dto.Identity{UserID: user.ID, Email: user.Email}, true)

	user.PasswordHash = ""

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        user,
		Profile:     user.Profile,
	}, nil
}

func (s *authService) publish(ctx context.Context, identity dto.Identity, signedIn bool) {
	if s.events == nil {
		return
	}

	var err error
	if signedIn {
		err = s.events.SignedIn(ctx, identity)
	} else {
		err = s.events.SignedOut(ctx, identity)
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", identity.UserID.String()).Msg("failed to publish auth state")
	}
}

func (s *authService) generateToken(user *entity.User) (string, int64, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)

	claims := dto.Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}
