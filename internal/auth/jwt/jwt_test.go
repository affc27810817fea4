package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough-123"

func TestNewService(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "valid config",
			config:  Config{SecretKey: testSecret, Duration: time.Hour},
			wantErr: nil,
		},
		{
			name:    "empty secret",
			config:  Config{SecretKey: "", Duration: time.Hour},
			wantErr: ErrEmptySecretKey,
		},
		{
			name:    "short secret",
			config:  Config{SecretKey: "short", Duration: time.Hour},
			wantErr: ErrWeakSecretKey,
		},
		{
			name:    "zero duration",
			config:  Config{SecretKey: testSecret, Duration: 0},
			wantErr: ErrInvalidDuration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.config)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc, err := NewService(Config{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)

	token, err := svc.GenerateToken(42, "alice", KindUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.PrincipalID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, KindUser, claims.Kind)
	assert.False(t, claims.IsAdmin())
}

func TestAdminClaims(t *testing.T) {
	svc, err := NewService(Config{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)

	token, err := svc.GenerateToken(1, "root", KindAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, err := NewService(Config{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	svc1, err := NewService(Config{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)
	svc2, err := NewService(Config{SecretKey: "another-secret-key-also-long-enough-456", Duration: time.Hour})
	require.NoError(t, err)

	token, err := svc1.GenerateToken(1, "alice", KindUser)
	require.NoError(t, err)

	_, err = svc2.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, err := NewService(Config{SecretKey: testSecret, Duration: time.Millisecond})
	require.NoError(t, err)

	token, err := svc.GenerateToken(1, "alice", KindUser)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
