package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// AuthService 负责注册、登录、会话校验与登出。
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtSecret   []byte
	sessionTTL  time.Duration
	now         func() time.Time

	comparePassword func(password, hash string) bool
}

// dummyPasswordHash 用于未知用户的登录，使其与密码错误耗时相同
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("no-such-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("failed to hash dummy password: %v", err))
	}
	return string(hash)
})

// NewAuthService 创建 AuthService 实例。
// sessionTTLHours 定义会话与 token 的有效小时数。
func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, jwtSecretKey string, sessionTTLHours int) (*AuthService, error) {
	if userRepo == nil {
		panic("UserRepository cannot be nil for AuthService")
	}
	if sessionRepo == nil {
		panic("SessionRepository cannot be nil for AuthService")
	}
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("JWT secret key cannot be empty")
	}
	if sessionTTLHours <= 0 {
		sessionTTLHours = 24
	}
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtSecret:   []byte(jwtSecretKey),
		sessionTTL:  time.Duration(sessionTTLHours) * time.Hour,
		now:         time.Now,

		comparePassword: checkPassword,
	}, nil
}

// Register 处理用户注册。密码以 bcrypt 哈希保存。
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	logCtx := logrus.WithField("username", username)

	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		logCtx.Warn("Registration failed: username already exists")
		return nil, ErrDuplicateUsername
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		logCtx.WithError(err).Error("Database error checking username availability")
		return nil, ErrInternalServer
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash password during registration")
		return nil, ErrInternalServer
	}

	user := &domain.User{
		Username: username,
		Password: hashedPassword,
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		// 并发注册同名用户时由唯一索引兜底
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Registration failed: username already exists (unique index)")
			return nil, ErrDuplicateUsername
		}
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID).Info("User registered successfully")
	user.Password = ""
	return user, nil
}

// Login 校验凭证，创建服务端会话并返回签名后的会话 token。
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, string, error) {
	logCtx := logrus.WithField("username", username)

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Login attempt failed: user not found")
		} else {
			logCtx.WithError(err).Warn("Login attempt failed: error finding user")
		}
		s.comparePassword(password, dummyPasswordHash())
		return nil, "", ErrInvalidCredentials
	}
	if user == nil {
		logCtx.Warn("Login attempt failed: repository returned nil user without error")
		s.comparePassword(password, dummyPasswordHash())
		return nil, "", ErrInvalidCredentials
	}

	if !s.comparePassword(password, user.Password) {
		logCtx.Warn("Login attempt failed: invalid password")
		return nil, "", ErrInvalidCredentials
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		logCtx.WithError(err).Error("Failed to persist session during login")
		return nil, "", ErrInternalServer
	}

	token, err := s.generateJWT(session)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate session token during login")
		return nil, "", ErrInternalServer
	}

	logCtx.WithFields(logrus.Fields{"user_id": user.ID, "session_id": session.ID}).Info("User logged in successfully")
	return session, token, nil
}

// Authenticate 解析 token 并确认对应的服务端会话仍然有效。
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*domain.Session, error) {
	claims, err := s.parseJWT(tokenStr)
	if err != nil {
		logrus.WithError(err).Debug("Authenticate: invalid session token")
		return nil, ErrUnauthenticated
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		logrus.WithError(err).WithField("session_id", claims.SessionID).Error("Authenticate: session lookup failed")
		return nil, ErrInternalServer
	}
	if session.UserID != claims.UserID {
		logrus.WithField("session_id", session.ID).Warn("Authenticate: token user does not match session user")
		return nil, ErrUnauthenticated
	}
	if session.Expired(s.now().UTC()) {
		_ = s.sessionRepo.Delete(ctx, session.ID)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Logout 删除会话，重复调用不会报错。
func (s *AuthService) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
		logrus.WithError(err).WithField("session_id", session.ID).Error("Failed to delete session during logout")
		return ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"user_id": session.UserID, "session_id": session.ID}).Info("User logged out")
	return nil
}

// --- 私有辅助函数 ---

// sessionClaims 是会话 token 中携带的声明。
type sessionClaims struct {
	UserID    uint   `json:"user_id"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// hashPassword 使用 bcrypt 对密码进行哈希处理
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

// checkPassword 以常量时间比较密码与哈希
func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *AuthService) generateJWT(session *domain.Session) (string, error) {
	claims := sessionClaims{
		UserID:    session.UserID,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (s *AuthService) parseJWT(tokenStr string) (*sessionClaims, error) {
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid || claims.SessionID == "" || claims.UserID == 0 {
		return nil, errors.New("invalid token or claims")
	}
	return claims, nil
}
