// Package auth 提供邮箱一次性验证码登录
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akproject/ak-chat/internal/config"
	"github.com/akproject/ak-chat/internal/model"
	"github.com/akproject/ak-chat/internal/repository"
)

// Mailer 验证码邮件发送接口
type Mailer interface {
	SendAuthCode(ctx context.Context, email, code string) error
}

// Service 认证服务
type Service struct {
	repo       repository.AuthRepository
	codes      CodeStore
	mailer     Mailer
	jwtSecret  []byte
	codeTTL    time.Duration
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService 创建认证服务
// 未配置 JWT 密钥时随机生成，重启后已签发的令牌失效
func NewService(repo repository.AuthRepository, codes CodeStore, mailer Mailer, cfg *config.AuthConfig) *Service {
	secret := cfg.JWTSecret
	if secret == "" {
		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			panic(fmt.Sprintf("failed to generate JWT secret: %v", err))
		}
		secret = base64.StdEncoding.EncodeToString(randomBytes)
	}

	return &Service{
		repo:       repo,
		codes:      codes,
		mailer:     mailer,
		jwtSecret:  []byte(secret),
		codeTTL:    time.Duration(cfg.CodeTTLMinutes) * time.Minute,
		accessTTL:  time.Duration(cfg.AccessTokenTTL) * time.Hour,
		refreshTTL: time.Duration(cfg.RefreshTokenTTL) * time.Hour,
	}
}

// RequestCodeRequest 请求验证码
type RequestCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestCode 生成验证码、入库并发送邮件
// 存储的是 bcrypt 哈希，明文只出现在邮件中
func (s *Service) RequestCode(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	if err := s.codes.Set(ctx, email, string(hash), s.codeTTL); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if err := s.mailer.SendAuthCode(ctx, email, code); err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}
	return nil
}

// VerifyCodeRequest 校验验证码
type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message,omitempty"`
	User         *model.User `json:"user,omitempty"`
	Token        string      `json:"token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
}

// VerifyCode 校验验证码并签发令牌
// 验证码取出即删除，无论比对成败均只能使用一次
func (s *Service) VerifyCode(ctx context.Context, email, code string) (*LoginResponse, error) {
	hash, err := s.codes.Take(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return &LoginResponse{Success: false, Message: "Invalid or expired code"}, nil
		}
		return nil, fmt.Errorf("failed to load code: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return &LoginResponse{Success: false, Message: "Invalid or expired code"}, nil
	}

	user, err := s.loginUser(email)
	if err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.generateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	return &LoginResponse{
		Success:      true,
		Message:      "Login successful",
		User:         user,
		Token:        accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ValidateToken 验证访问令牌并加载用户
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid user ID in token")
	}
	return s.repo.GetUserByID(userID)
}

// Refresh 用刷新令牌换取新的令牌对
func (s *Service) Refresh(ctx context.Context, refreshTokenString string) (string, string, error) {
	claims, err := s.parseToken(refreshTokenString)
	if err != nil {
		return "", "", err
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "refresh" {
		return "", "", errors.New("not a refresh token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", "", errors.New("invalid user ID in token")
	}

	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return "", "", err
	}
	return s.generateTokens(user)
}

// loginUser 按邮箱取回或创建用户，并刷新最后登录时间
func (s *Service) loginUser(email string) (*model.User, error) {
	user, err := s.repo.GetUserByEmail(email)
	if err != nil {
		user = &model.User{
			ID:    uuid.New().String(),
			Email: email,
		}
	}
	user.LastLoginAt = time.Now()

	if err := s.repo.UpsertUser(user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return user, nil
}

// parseToken 解析并校验 HS256 令牌
func (s *Service) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// generateTokens 生成访问令牌和刷新令牌
func (s *Service) generateTokens(user *model.User) (string, string, error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     now.Add(s.accessTTL).Unix(),
		"iat":     now.Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.jwtSecret)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"user_id": user.ID,
		"type":    "refresh",
		"exp":     now.Add(s.refreshTTL).Unix(),
		"iat":     now.Unix(),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(s.jwtSecret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// generateCode 生成 6 位数字验证码
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
