package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
	"minimal-blog/internal/repository/mocks"
	"minimal-blog/internal/service"
)

const testJWTSecret = "very-secret-key"

func newAuthService(t *testing.T) (*service.AuthService, *mocks.UserRepository, *mocks.SessionRepository) {
	userRepo := mocks.NewUserRepository(t)
	sessionRepo := mocks.NewSessionRepository(t)
	authService, err := service.NewAuthService(userRepo, sessionRepo, testJWTSecret, 1)
	require.NoError(t, err, "创建 AuthService 不应失败")
	return authService, userRepo, sessionRepo
}

func hashed(t *testing.T, password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Register ---

func TestAuthService_Register_Success(t *testing.T) {
	authService, userRepo, _ := newAuthService(t)
	ctx := context.Background()

	userRepo.On("FindByUsername", mock.Anything, "alice").
		Return(nil, repository.ErrUserNotFound).
		Once()
	userRepo.On("Save", mock.Anything, mock.MatchedBy(func(user *domain.User) bool {
		return user.Username == "alice" &&
			user.Password != "secret" &&
			bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret")) == nil
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.User).ID = 5
		}).
		Return(nil).
		Once()

	user, err := authService.Register(ctx, "alice", "secret")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, uint(5), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.Password, "返回的用户不应包含密码哈希")
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	authService, userRepo, _ := newAuthService(t)

	userRepo.On("FindByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 1, Username: "alice"}, nil).
		Once()

	user, err := authService.Register(context.Background(), "alice", "other")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, service.ErrDuplicateUsername)
	userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Register_DuplicateDetectedByUniqueIndex(t *testing.T) {
	authService, userRepo, _ := newAuthService(t)

	userRepo.On("FindByUsername", mock.Anything, "alice").Return(nil, repository.ErrUserNotFound).Once()
	userRepo.On("Save", mock.Anything, mock.Anything).
		Return(repository.ErrDuplicateEntry).
		Once()

	_, err := authService.Register(context.Background(), "alice", "secret")
	assert.ErrorIs(t, err, service.ErrDuplicateUsername)
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	authService, _, _ := newAuthService(t)

	_, err := authService.Register(context.Background(), "", "secret")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = authService.Register(context.Background(), "alice", "")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestAuthService_Register_RepositoryError(t *testing.T) {
	authService, userRepo, _ := newAuthService(t)

	userRepo.On("FindByUsername", mock.Anything, "alice").
		Return(nil, errors.New("connection refused")).
		Once()

	_, err := authService.Register(context.Background(), "alice", "secret")
	assert.ErrorIs(t, err, service.ErrInternalServer)
}

// --- Login / Authenticate / Logout ---

func TestAuthService_Login_IssuesTokenForStoredSession(t *testing.T) {
	authService, userRepo, sessionRepo := newAuthService(t)
	ctx := context.Background()

	userRepo.On("FindByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 7, Username: "alice", Password: hashed(t, "secret")}, nil).
		Once()

	var stored *domain.Session
	sessionRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Session")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*domain.Session)
		}).
		Return(nil).
		Once()

	session, token, err := authService.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.NotEmpty(t, token)
	assert.Equal(t, uint(7), session.UserID)
	assert.Same(t, stored, session)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	sessionRepo.On("FindByID", mock.Anything, session.ID).Return(stored, nil).Once()

	authenticated, err := authService.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, authenticated.ID)
	assert.Equal(t, uint(7), authenticated.UserID)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	authService, userRepo, sessionRepo := newAuthService(t)

	userRepo.On("FindByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 7, Username: "alice", Password: hashed(t, "secret")}, nil).
		Once()

	session, token, err := authService.Login(context.Background(), "alice", "wrong")

	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.Nil(t, session)
	assert.Empty(t, token)
	sessionRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	authService, userRepo, _ := newAuthService(t)

	userRepo.On("FindByUsername", mock.Anything, "ghost").
		Return(nil, repository.ErrUserNotFound).
		Once()

	_, _, err := authService.Login(context.Background(), "ghost", "secret")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials, "未知用户与密码错误返回同一个错误")
}

func TestAuthService_Login_UnknownUserStillComparesHash(t *testing.T) {
	authService, userRepo, _ := newAuthService(t)

	var hashes []string
	service.SetPasswordComparer(authService, func(password, hash string) bool {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	})
	userRepo.On("FindByUsername", mock.Anything, "ghost").
		Return(nil, repository.ErrUserNotFound).
		Once()

	_, _, err := authService.Login(context.Background(), "ghost", "secret")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	// 未知用户也要做一次 bcrypt 比较，耗时与密码错误一致
	require.Len(t, hashes, 1)
	cost, err := bcrypt.Cost([]byte(hashes[0]))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestAuthService_Authenticate_RejectsGarbageAndForeignTokens(t *testing.T) {
	authService, _, _ := newAuthService(t)

	_, err := authService.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"sid":     "forged-session",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = authService.Authenticate(context.Background(), foreign)
	assert.ErrorIs(t, err, service.ErrUnauthenticated, "其他密钥签名的 token 必须被拒绝")

	_, err = authService.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestAuthService_Authenticate_RevokedSession(t *testing.T) {
	authService, userRepo, sessionRepo := newAuthService(t)
	ctx := context.Background()

	userRepo.On("FindByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 7, Username: "alice", Password: hashed(t, "secret")}, nil).
		Once()
	sessionRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	session, token, err := authService.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	sessionRepo.On("Delete", mock.Anything, session.ID).Return(nil).Once()
	require.NoError(t, authService.Logout(ctx, session))

	sessionRepo.On("FindByID", mock.Anything, session.ID).
		Return(nil, repository.ErrSessionNotFound).
		Once()

	_, err = authService.Authenticate(ctx, token)
	assert.ErrorIs(t, err, service.ErrUnauthenticated, "登出后 token 立即失效")
}

func TestAuthService_Authenticate_ExpiredSession(t *testing.T) {
	authService, userRepo, sessionRepo := newAuthService(t)
	ctx := context.Background()

	userRepo.On("FindByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 7, Username: "alice", Password: hashed(t, "secret")}, nil).
		Once()
	sessionRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	session, token, err := authService.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	// 服务端会话比 token 先过期
	expired := *session
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	sessionRepo.On("FindByID", mock.Anything, session.ID).Return(&expired, nil).Once()
	sessionRepo.On("Delete", mock.Anything, session.ID).Return(nil).Once()

	_, err = authService.Authenticate(ctx, token)
	assert.ErrorIs(t, err, service.ErrSessionExpired)
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	authService, _, sessionRepo := newAuthService(t)
	session := &domain.Session{ID: "abc", UserID: 1}

	sessionRepo.On("Delete", mock.Anything, "abc").Return(nil).Twice()

	assert.NoError(t, authService.Logout(context.Background(), session))
	assert.NoError(t, authService.Logout(context.Background(), session))
	assert.NoError(t, authService.Logout(context.Background(), nil))
}

func TestNewAuthService_EmptySecret(t *testing.T) {
	_, err := service.NewAuthService(mocks.NewUserRepository(t), mocks.NewSessionRepository(t), "", 1)
	assert.Error(t, err)
}
