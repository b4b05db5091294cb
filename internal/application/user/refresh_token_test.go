package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/jwt"
)

func TestRefreshToken_IssuesNewAccessToken(t *testing.T) {
	manager := jwt.NewManager("test-secret", 2*time.Hour, 7*24*time.Hour)
	pair, err := manager.GenerateToken(7, "reader@example.com", "书虫")
	require.NoError(t, err)

	uc := NewRefreshTokenUseCase(manager)
	resp, err := uc.Execute(context.Background(), pair.RefreshToken)

	require.NoError(t, err)
	assert.Equal(t, int64((2 * time.Hour).Seconds()), resp.ExpiresIn)

	// 新Access Token指向同一用户
	claims, err := manager.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestRefreshToken_InvalidTokenRejected(t *testing.T) {
	manager := jwt.NewManager("test-secret", 2*time.Hour, 7*24*time.Hour)
	uc := NewRefreshTokenUseCase(manager)

	_, err := uc.Execute(context.Background(), "not-a-token")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.CodeOf(err))
}

func TestRefreshToken_WrongSecretRejected(t *testing.T) {
	other := jwt.NewManager("other-secret", 2*time.Hour, 7*24*time.Hour)
	pair, err := other.GenerateToken(7, "reader@example.com", "书虫")
	require.NoError(t, err)

	manager := jwt.NewManager("test-secret", 2*time.Hour, 7*24*time.Hour)
	uc := NewRefreshTokenUseCase(manager)

	_, err = uc.Execute(context.Background(), pair.RefreshToken)
	require.Error(t, err)
}
