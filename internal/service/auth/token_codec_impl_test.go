package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Secret:          "test-signing-secret-0123456789abcdef",
		TokenTTLSeconds: 3600,
	}
}

func TestNewTokenCodec(t *testing.T) {
	t.Parallel()

	t.Run("accepts 32 character secret", func(t *testing.T) {
		t.Parallel()

		codec, err := NewTokenCodec(testAuthConfig())
		require.NoError(t, err)
		assert.NotNil(t, codec)
	})

	t.Run("rejects short secret", func(t *testing.T) {
		t.Parallel()

		_, err := NewTokenCodec(config.AuthConfig{Secret: "too-short", TokenTTLSeconds: 3600})
		assert.Error(t, err)
	})
}

func TestSealUnsealRoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec(testAuthConfig())
	require.NoError(t, err)

	claim := json.RawMessage(`{"id":"` + uuid.NewString() + `","role":"member"}`)

	token, err := codec.Seal(context.Background(), claim, 0)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := codec.Unseal(context.Background(), token)
	require.NoError(t, err)

	// The claim payload must survive the round trip byte-for-byte.
	assert.JSONEq(t, string(claim), string(got))
}

func TestSealRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec(testAuthConfig())
	require.NoError(t, err)

	_, err = codec.Seal(context.Background(), json.RawMessage(`{"id":`), 0)
	assert.ErrorIs(t, err, ErrSigning)
}

func TestUnsealErrors(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec(testAuthConfig())
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()

		_, err := codec.Unseal(context.Background(), "")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		t.Parallel()

		_, err := codec.Unseal(context.Background(), "not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token signed with different key", func(t *testing.T) {
		t.Parallel()

		other, err := NewTokenCodec(config.AuthConfig{
			Secret:          "another-signing-secret-fedcba98765432",
			TokenTTLSeconds: 3600,
		})
		require.NoError(t, err)

		token, err := other.Seal(context.Background(), json.RawMessage(`{"id":"x"}`), 0)
		require.NoError(t, err)

		_, err = codec.Unseal(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestUnsealExpiredToken(t *testing.T) {
	t.Parallel()

	impl := &hmacTokenCodec{
		signingKey: []byte(testAuthConfig().Secret),
		defaultTTL: time.Hour,
		timeFunc:   time.Now,
		clockSkew:  2 * time.Minute,
	}

	token, err := impl.Seal(context.Background(), json.RawMessage(`{"id":"x"}`), time.Hour)
	require.NoError(t, err)

	// Jump past expiry plus the allowed clock skew.
	impl.timeFunc = func() time.Time {
		return time.Now().Add(time.Hour + 3*time.Minute)
	}

	_, err = impl.Unseal(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestUnsealWithinClockSkew(t *testing.T) {
	t.Parallel()

	impl := &hmacTokenCodec{
		signingKey: []byte(testAuthConfig().Secret),
		defaultTTL: time.Hour,
		timeFunc:   time.Now,
		clockSkew:  2 * time.Minute,
	}

	token, err := impl.Seal(context.Background(), json.RawMessage(`{"id":"x"}`), time.Hour)
	require.NoError(t, err)

	// One minute past expiry is still inside the two minute leeway.
	impl.timeFunc = func() time.Time {
		return time.Now().Add(time.Hour + time.Minute)
	}

	_, err = impl.Unseal(context.Background(), token)
	assert.NoError(t, err)
}
