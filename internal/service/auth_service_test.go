package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bobpay/bobpay-backend/internal/models"
	"github.com/bobpay/bobpay-backend/internal/repository"
)

type mockAuthRepo struct {
	mock.Mock
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockAuthRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockAuthRepo) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockAuthRepo) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockAuthRepo) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockAuthRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockAuthRepo) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockAuthRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *mockAuthRepo) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func newTokenManagerForTest() *TokenManager {
	return NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTokenManagerForTest())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "new@example.com").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("UpsertProfile", ctx, mock.AnythingOfType("*models.Profile")).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "new@example.com",
		Password: "Str0ngPass",
		Role:     "client",
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, "client", result.User.Role)
	// Имя пользователя выводится из email, если не задано
	assert.Equal(t, "new", result.User.Username)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
	repo.AssertExpectations(t)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTokenManagerForTest())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "taken@example.com").Return(&models.User{ID: uuid.New()}, nil)

	_, err := svc.Register(ctx, RegisterInput{
		Email:    "taken@example.com",
		Password: "Str0ngPass",
	}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "уже зарегистрирован")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_UnknownRoleDefaultsToFreelancer(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTokenManagerForTest())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, mock.AnythingOfType("string")).Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("UpsertProfile", ctx, mock.AnythingOfType("*models.Profile")).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "dev@example.com",
		Password: "Str0ngPass",
		Role:     "admin",
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, "freelancer", result.User.Role)
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTokenManagerForTest())
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("Str0ngPass"), bcrypt.MinCost)
	assert.NoError(t, err)

	userID := uuid.New()
	repo.On("GetByEmail", ctx, "user@example.com").Return(&models.User{
		ID:           userID,
		Email:        "user@example.com",
		Username:     "user",
		PasswordHash: string(hash),
		Role:         "freelancer",
		IsActive:     true,
	}, nil)
	repo.On("UpdateLastLoginAt", ctx, userID).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)
	repo.On("GetProfile", ctx, userID).Return(&models.Profile{UserID: userID, DisplayName: "User"}, nil)

	result, err := svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "Str0ngPass"}, map[string]string{
		"user_agent": "go-test",
		"ip":         "127.0.0.1",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.Equal(t, "User", result.Profile.DisplayName)
	repo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTokenManagerForTest())
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("Str0ngPass"), bcrypt.MinCost)
	repo.On("GetByEmail", ctx, "user@example.com").Return(&models.User{
		ID:           uuid.New(),
		PasswordHash: string(hash),
		IsActive:     true,
	}, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "wrong-pass"}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "неверный email или пароль")
	repo.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTokenManagerForTest())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "blocked@example.com").Return(&models.User{
		ID:       uuid.New(),
		IsActive: false,
	}, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "blocked@example.com", Password: "Str0ngPass"}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "заблокирован")
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	repo := new(mockAuthRepo)
	tm := newTokenManagerForTest()
	svc := NewAuthService(repo, tm)
	ctx := context.Background()

	userID := uuid.New()
	user := &models.User{ID: userID, Role: "client", IsActive: true}
	pair, _, _, err := tm.GeneratePair(user)
	assert.NoError(t, err)

	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(&models.Session{
		ID:           uuid.New(),
		UserID:       userID,
		RefreshToken: pair.RefreshToken,
	}, nil)
	repo.On("GetByID", ctx, userID).Return(user, nil)
	repo.On("DeleteSession", ctx, pair.RefreshToken).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	newPair, err := svc.Refresh(ctx, pair.RefreshToken, nil)

	assert.NoError(t, err)
	assert.NotEmpty(t, newPair.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)
	repo.AssertExpectations(t)
}

func TestAuthService_Refresh_RevokedSession(t *testing.T) {
	repo := new(mockAuthRepo)
	tm := newTokenManagerForTest()
	svc := NewAuthService(repo, tm)
	ctx := context.Background()

	userID := uuid.New()
	pair, _, _, err := tm.GeneratePair(&models.User{ID: userID, Role: "client", IsActive: true})
	assert.NoError(t, err)

	// Подпись токена валидна, но сессия уже удалена через logout
	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(nil, repository.ErrUserNotFound)

	_, err = svc.Refresh(ctx, pair.RefreshToken, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "отозвана")
	repo.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTokenManagerForTest())

	_, err := svc.Refresh(context.Background(), "not-a-jwt", nil)

	assert.Error(t, err)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestTokenManager_ParseAccess(t *testing.T) {
	tm := newTokenManagerForTest()
	userID := uuid.New()

	pair, _, _, err := tm.GeneratePair(&models.User{ID: userID, Role: "client"})
	assert.NoError(t, err)

	parsedID, role, err := tm.ParseAccess(pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, userID, parsedID)
	assert.Equal(t, "client", role)

	// Access токен не принимается как refresh: подписи разные
	_, err = tm.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)
}
