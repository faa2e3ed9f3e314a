package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "mentor-booking", Expiry: time.Hour})

	token, err := svc.IssueAccessToken(models.UserInfo{ID: "mentee-1", Role: models.RoleMentee, Email: "m@example.com", Nickname: "mint"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	claims, err := svc.ValidateToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, "mentee-1", claims.UserID)
	assert.Equal(t, models.RoleMentee, claims.Role)
	assert.Equal(t, "mint", claims.Nickname)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "mentor-booking", Expiry: time.Minute})
	token, err := svc.IssueAccessToken(models.UserInfo{ID: "mentee-1", Role: models.RoleMentee})
	require.NoError(t, err)

	other := NewTokenService(TokenConfig{Secret: "different", Issuer: "mentor-booking"})
	_, err = other.ValidateToken(token.Token)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	wrongIssuer := NewTokenService(TokenConfig{Secret: "secret", Issuer: "someone-else"})
	_, err = wrongIssuer.ValidateToken(token.Token)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token.Token)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	_, err = svc.ValidateToken("not-a-token")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
