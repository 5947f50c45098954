package services

import (
	"context"
	"testing"

	"github.com/makkaan/avenue-api/internal/config"
	"github.com/makkaan/avenue-api/internal/models"
	"github.com/makkaan/avenue-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockUserRepo struct {
	repository.UserRepository
	mockFindByEmail func(ctx context.Context, email string) (*models.User, error)
	mockFindByID    func(ctx context.Context, id uint) (*models.User, error)
	mockUpdate      func(ctx context.Context, user *models.User) error
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.mockFindByEmail(ctx, email)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, user)
	}
	return nil
}

type mockRefreshTokenRepo struct {
	repository.RefreshTokenRepository
	mockFindByToken  func(ctx context.Context, token string) (*models.RefreshToken, error)
	mockCreate       func(ctx context.Context, rt *models.RefreshToken) error
	mockDelete       func(ctx context.Context, token string) error
	mockDeleteByUser func(ctx context.Context, userID uint) error
}

func (m *mockRefreshTokenRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return m.mockFindByToken(ctx, token)
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, rt *models.RefreshToken) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, rt)
	}
	return nil
}

func (m *mockRefreshTokenRepo) Delete(ctx context.Context, token string) error {
	if m.mockDelete != nil {
		return m.mockDelete(ctx, token)
	}
	return nil
}

func (m *mockRefreshTokenRepo) DeleteByUser(ctx context.Context, userID uint) error {
	if m.mockDeleteByUser != nil {
		return m.mockDeleteByUser(ctx, userID)
	}
	return nil
}

func authConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 24,
	}
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := NewAuthService(mockRepo, nil, authConfig())

	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{
			Email:  email,
			Status: models.StatusInactive,
		}, nil
	}

	result, err := service.Login(context.Background(), "inactive@example.com", "password")
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Equal(t, "account is inactive", err.Error())
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	hash, _ := HashPassword("correct-password")

	mockRepo := &mockUserRepo{}
	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{
			Email:             email,
			Status:            models.StatusActive,
			EncryptedPassword: hash,
		}, nil
	}

	service := NewAuthService(mockRepo, nil, authConfig())
	result, err := service.Login(context.Background(), "user@example.com", "wrong-password")

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestAuthService_Login_Success(t *testing.T) {
	hash, _ := HashPassword("correct-password")

	mockRepo := &mockUserRepo{}
	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{
			ID:                5,
			Email:             email,
			Role:              models.RoleClient,
			Status:            models.StatusActive,
			EncryptedPassword: hash,
		}, nil
	}

	rtRepo := &mockRefreshTokenRepo{}
	service := NewAuthService(mockRepo, rtRepo, authConfig())

	result, err := service.Login(context.Background(), "user@example.com", "correct-password")

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, uint(5), result.User.ID)
}

func TestAuthService_RefreshToken_InactiveUser(t *testing.T) {
	mockRepo := &mockUserRepo{}
	rtRepo := &mockRefreshTokenRepo{}
	service := NewAuthService(mockRepo, rtRepo, authConfig())

	rtRepo.mockFindByToken = func(ctx context.Context, token string) (*models.RefreshToken, error) {
		return &models.RefreshToken{UserID: 1}, nil
	}
	mockRepo.mockFindByID = func(ctx context.Context, id uint) (*models.User, error) {
		return &models.User{
			ID:     id,
			Status: models.StatusInactive,
		}, nil
	}

	result, err := service.RefreshToken(context.Background(), "token")
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Equal(t, "account is inactive", err.Error())
}

func TestAuthService_ChangePassword(t *testing.T) {
	hash, _ := HashPassword("old-password")
	user := &models.User{ID: 3, Status: models.StatusActive, EncryptedPassword: hash}

	mockRepo := &mockUserRepo{}
	mockRepo.mockFindByID = func(ctx context.Context, id uint) (*models.User, error) {
		return user, nil
	}

	tokensRevoked := false
	rtRepo := &mockRefreshTokenRepo{}
	rtRepo.mockDeleteByUser = func(ctx context.Context, userID uint) error {
		tokensRevoked = true
		return nil
	}

	service := NewAuthService(mockRepo, rtRepo, authConfig())

	err := service.ChangePassword(context.Background(), 3, "wrong-password", "new-password-1")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	err = service.ChangePassword(context.Background(), 3, "old-password", "new-password-1")
	assert.NoError(t, err)
	assert.True(t, VerifyPassword("new-password-1", user.EncryptedPassword))
	assert.True(t, tokensRevoked)
}
