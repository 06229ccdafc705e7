package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(Config{Secret: testSecret, Issuer: "authcore-test"})
	require.NoError(t, err)
	return codec
}

func testIdentity() Identity {
	return Identity{
		SubjectID:   "u1",
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Role:        RolePlayer,
	}
}

func TestNewCodecRejectsBadConfig(t *testing.T) {
	_, err := NewCodec(Config{Secret: []byte("short")})
	require.Error(t, err)

	_, err = NewCodec(Config{Secret: testSecret, Leeway: -time.Second})
	require.Error(t, err)

	_, err = NewCodec(Config{Secret: testSecret, Leeway: time.Hour})
	require.Error(t, err)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	id := testIdentity()

	signed, err := codec.Sign(id, time.Hour, KindAccess)
	require.NoError(t, err)
	require.Len(t, strings.Split(signed, "."), 3)

	claims, err := codec.Verify(signed, KindAccess)
	require.NoError(t, err)
	require.Equal(t, id.SubjectID, claims.Subject)
	require.Equal(t, id.Email, claims.Email)
	require.Equal(t, id.DisplayName, claims.DisplayName)
	require.Equal(t, id.Role, claims.Role)
	require.Equal(t, KindAccess, claims.Kind)
	require.Equal(t, id, claims.Identity())
	require.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestSignRejectsMalformedInput(t *testing.T) {
	codec := newTestCodec(t)

	_, err := codec.Sign(Identity{}, time.Hour, KindAccess)
	require.Error(t, err)

	_, err = codec.Sign(testIdentity(), -time.Second, KindAccess)
	require.Error(t, err)

	_, err = codec.Sign(testIdentity(), time.Hour, Kind("session"))
	require.Error(t, err)
}

func TestVerifyKindIsolation(t *testing.T) {
	codec := newTestCodec(t)

	refresh, err := codec.Sign(testIdentity(), time.Hour, KindRefresh)
	require.NoError(t, err)
	access, err := codec.Sign(testIdentity(), time.Hour, KindAccess)
	require.NoError(t, err)

	_, err = codec.Verify(refresh, KindAccess)
	require.ErrorIs(t, err, ErrInvalid)
	_, err = codec.Verify(access, KindRefresh)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = codec.VerifyAny(refresh)
	require.NoError(t, err)
}

func TestVerifyTamperedSignature(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Sign(testIdentity(), time.Hour, KindAccess)
	require.NoError(t, err)

	sigStart := strings.LastIndex(signed, ".") + 1
	for i := sigStart; i < len(signed); i++ {
		flipped := []byte(signed)
		if flipped[i] == 'A' {
			flipped[i] = 'B'
		} else {
			flipped[i] = 'A'
		}
		_, err := codec.Verify(string(flipped), KindAccess)
		require.ErrorIs(t, err, ErrInvalid, "flipped signature byte %d", i)
	}
}

func TestVerifyRejectsNonCanonicalSignaturePadding(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Sign(testIdentity(), time.Hour, KindAccess)
	require.NoError(t, err)

	// A 32-byte HMAC encodes to 43 base64url characters, leaving two
	// unused padding bits in the last one: its alphabet index is always a
	// multiple of four. Bumping the index by one changes only those
	// padding bits, so a lax decoder sees the identical signature. Strict
	// decoding must reject it.
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	last := signed[len(signed)-1]
	idx := strings.IndexByte(alphabet, last)
	require.GreaterOrEqual(t, idx, 0)
	require.Zero(t, idx%4, "final signature char should have zero padding bits")

	tampered := signed[:len(signed)-1] + string(alphabet[idx+1])
	require.NotEqual(t, signed, tampered)

	_, err = codec.Verify(tampered, KindAccess)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	codec := newTestCodec(t)

	for _, tok := range []string{
		"",
		"garbage",
		"a.b",
		"a.b.c.d",
		"..",
		"eyJhbGciOiJIUzI1NiJ9..",
	} {
		_, err := codec.Verify(tok, KindAccess)
		require.ErrorIs(t, err, ErrInvalid, "token %q", tok)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec(Config{Secret: []byte("ffffffffffffffffffffffffffffffff")})
	require.NoError(t, err)

	signed, err := other.Sign(testIdentity(), time.Hour, KindAccess)
	require.NoError(t, err)

	_, err = codec.Verify(signed, KindAccess)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyExpired(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Sign(testIdentity(), 0, KindAccess)
	require.NoError(t, err)

	codec.now = func() time.Time { return time.Now().Add(time.Second) }
	_, err = codec.Verify(signed, KindAccess)
	require.ErrorIs(t, err, ErrInvalid)
	require.True(t, codec.IsExpired(signed))
}

func TestDecodeSkipsSignatureCheck(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Sign(testIdentity(), time.Hour, KindRefresh)
	require.NoError(t, err)

	tampered := signed[:len(signed)-2] + "xx"
	claims := codec.Decode(tampered)
	require.NotNil(t, claims)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, KindRefresh, claims.Kind)

	require.Nil(t, codec.Decode("not-a-token"))
	require.Nil(t, codec.Decode(""))
}

func TestExpiryDerivations(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Sign(testIdentity(), time.Hour, KindAccess)
	require.NoError(t, err)

	remaining, ok := codec.TimeToExpiry(signed)
	require.True(t, ok)
	require.Greater(t, remaining, 59*time.Minute)
	require.LessOrEqual(t, remaining, time.Hour)
	require.False(t, codec.IsExpired(signed))

	_, ok = codec.TimeToExpiry("broken")
	require.False(t, ok)
	require.True(t, codec.IsExpired("broken"))
}

func TestSignedTokensCarryUniqueIDs(t *testing.T) {
	codec := newTestCodec(t)

	first, err := codec.Sign(testIdentity(), time.Hour, KindRefresh)
	require.NoError(t, err)
	second, err := codec.Sign(testIdentity(), time.Hour, KindRefresh)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.NotEqual(t, codec.Decode(first).ID, codec.Decode(second).ID)
}
