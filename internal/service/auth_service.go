package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
	"nest/backend/pkg/jwt"
	"nest/backend/pkg/redis"
)

// AuthService handles registration, sign-in and the token lifecycle.
type AuthService struct {
	users  repository.UserRepository
	rdb    *redis.Client // nil when Redis is unavailable; revocation degrades
	jwtMgr *jwt.Manager
	logger *zap.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(users repository.UserRepository, rdb *redis.Client, jwtMgr *jwt.Manager, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, rdb: rdb, jwtMgr: jwtMgr, logger: logger}
}

// Register creates a new account. Every self-registered account starts as
// an active regular user; promotion is an admin operation.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		Status:       model.UserStatusActive,
		Department:   req.Department,
		Phone:        req.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.UserID),
		zap.String("email", user.Email))

	resp := toUserResponse(user)
	return &resp, nil
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}

	return s.issueTokens(user, req.RememberMe)
}

// Refresh rotates a refresh token: the old one is revoked and a fresh pair
// is issued against the user's current role and status.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidToken
	}

	if s.rdb != nil {
		revoked, err := s.rdb.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("blacklist check failed", zap.Error(err))
		} else if revoked {
			return nil, ErrInvalidToken
		}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}

	s.revoke(ctx, claims)
	return s.issueTokens(user, claims.RememberMe)
}

// Logout revokes the presented tokens. Best effort without Redis.
func (s *AuthService) Logout(ctx context.Context, accessClaims *jwt.Claims, refreshToken string) error {
	s.revoke(ctx, accessClaims)

	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.TokenType == "refresh" {
			s.revoke(ctx, claims)
		}
	}
	return nil
}

// GetCurrentUser returns the caller's profile.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ChangePassword verifies the old password before swapping the hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)) != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return s.users.Update(ctx, user)
}

func (s *AuthService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	access, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, rememberMe)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

func (s *AuthService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.rdb == nil || claims == nil || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("token revoke failed", zap.String("jti", claims.ID), zap.Error(err))
	}
}
