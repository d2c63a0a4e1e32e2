package service

import (
	"errors"
	"strings"
	"time"

	"github.com/prepmood-verify/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAdminDisabled 未配置管理口令，管理接口整体关闭
	ErrAdminDisabled = errors.New("admin api disabled: no password configured")
	// ErrInvalidCredentials 用户名或口令错误
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// AuthService 管理接口认证服务。
// 管理端只有一个运维账号，凭据来自配置；口令在构造时做 bcrypt 散列，
// 内存里不保留明文。
type AuthService struct {
	cfg          config.AdminConfig
	passwordHash []byte
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg config.AdminConfig) (*AuthService, error) {
	s := &AuthService{cfg: cfg}
	password := strings.TrimSpace(cfg.Password)
	if password == "" {
		return s, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	s.passwordHash = hash
	return s, nil
}

// Enabled 管理接口是否可用（需要口令与 JWT 密钥均已配置）
func (s *AuthService) Enabled() bool {
	return s != nil && len(s.passwordHash) > 0 && strings.TrimSpace(s.cfg.JWTSecret) != ""
}

// JWTClaims JWT 声明
type JWTClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Login 校验凭据并签发 JWT
func (s *AuthService) Login(username, password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAdminDisabled
	}
	if username != s.cfg.Username {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expireHours := s.cfg.JWTExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)

	claims := JWTClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析并校验 JWT
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &JWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Username == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// MaskToken 日志用令牌掩码（abcd...wxyz），过短则原样返回
func MaskToken(token string) string {
	if len(token) < 8 {
		return token
	}
	return token[:4] + "..." + token[len(token)-4:]
}
