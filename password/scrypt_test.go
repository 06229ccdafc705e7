package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fastConfig keeps the KDF cheap enough for the test suite while staying
// above the enforced minimums.
func fastConfig() Config {
	return Config{
		N:          1 << 14,
		R:          8,
		P:          1,
		SaltLength: 16,
		KeyLength:  32,
	}
}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	hasher, err := NewHasher(fastConfig())
	require.NoError(t, err)
	return hasher
}

func TestNewHasherRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{N: 1000, R: 8, P: 1, SaltLength: 16, KeyLength: 32},     // not a power of two
		{N: 1 << 10, R: 8, P: 1, SaltLength: 16, KeyLength: 32},  // below minimum cost
		{N: 1 << 14, R: 8, P: 1, SaltLength: 8, KeyLength: 32},   // salt too short
		{N: 1 << 14, R: 8, P: 1, SaltLength: 16, KeyLength: 8},   // key too short
	}
	for _, cfg := range cases {
		_, err := NewHasher(cfg)
		require.Error(t, err, "config %+v", cfg)
	}
}

func TestNewHasherAppliesDefaults(t *testing.T) {
	hasher, err := NewHasher(Config{})
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), hasher.config)
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	hasher := newTestHasher(t)

	encoded, err := hasher.Hash("Correct-Horse-7!")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "scrypt$"))
	require.Len(t, strings.Split(encoded, "$"), 3)

	require.True(t, hasher.Verify("Correct-Horse-7!", encoded))
	require.False(t, hasher.Verify("Wrong-Horse-7!", encoded))
	require.False(t, hasher.NeedsMigration(encoded))
}

func TestHashSaltsAreUnique(t *testing.T) {
	hasher := newTestHasher(t)

	first, err := hasher.Hash("Correct-Horse-7!")
	require.NoError(t, err)
	second, err := hasher.Hash("Correct-Horse-7!")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, hasher.Verify("Correct-Horse-7!", first))
	require.True(t, hasher.Verify("Correct-Horse-7!", second))
}

func TestLegacyHashCompatibility(t *testing.T) {
	hasher := newTestHasher(t)

	legacy := LegacyDigest("old-password-123")
	require.True(t, hasher.Verify("old-password-123", legacy))
	require.False(t, hasher.Verify("wrong-password", legacy))
	require.True(t, hasher.NeedsMigration(legacy))
}

func TestVerifyMalformedStoredHash(t *testing.T) {
	hasher := newTestHasher(t)

	for _, stored := range []string{
		"",
		"scrypt$zz$zz",                  // bad hex
		"scrypt$deadbeef$deadbeef",      // salt and key too short
		"scrypt$only-one-part",          // wrong segment count
		"bcrypt$aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa$bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	} {
		require.False(t, hasher.Verify("whatever", stored), "stored %q", stored)
	}
}

func TestNeedsMigrationOnUnrecognizedFormat(t *testing.T) {
	hasher := newTestHasher(t)
	require.True(t, hasher.NeedsMigration(""))
	require.True(t, hasher.NeedsMigration("a$b"))
}

func TestValidateComplexity(t *testing.T) {
	res := ValidateComplexity("short")
	require.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)

	res = ValidateComplexity("Abcdef1!")
	require.True(t, res.Valid)
	require.Empty(t, res.Errors)

	// All four class rules plus length reported together.
	res = ValidateComplexity("")
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 5)

	res = ValidateComplexity("alllowercase")
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 3)
}

func TestValidateComplexityCountsRunesNotBytes(t *testing.T) {
	// Seven runes but eight bytes: the multibyte é must not satisfy the
	// minimum-length rule.
	short := "Aa1!éxx"
	require.Len(t, []rune(short), 7)
	require.Len(t, short, 8)

	res := ValidateComplexity(short)
	require.False(t, res.Valid)
	require.Contains(t, res.Errors, "must be at least 8 characters long")

	// One more rune crosses the threshold.
	res = ValidateComplexity(short + "x")
	require.True(t, res.Valid)
	require.Empty(t, res.Errors)
}

func TestGeneratePassword(t *testing.T) {
	_, err := GeneratePassword(8)
	require.Error(t, err)

	for i := 0; i < 100; i++ {
		generated, err := GeneratePassword(16)
		require.NoError(t, err)
		require.Len(t, generated, 16)

		res := ValidateComplexity(generated)
		require.True(t, res.Valid, "generated %q failed policy: %v", generated, res.Errors)
	}
}

func TestGeneratedPasswordsVerify(t *testing.T) {
	hasher := newTestHasher(t)

	generated, err := GeneratePassword(MinGeneratedLength)
	require.NoError(t, err)

	encoded, err := hasher.Hash(generated)
	require.NoError(t, err)
	require.True(t, hasher.Verify(generated, encoded))
}
