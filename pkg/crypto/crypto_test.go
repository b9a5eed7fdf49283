package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey(1))
	require.NoError(t, err)

	for _, plaintext := range []string{"john@example.com", "5551234567", "données chiffrées"} {
		encrypted, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, []byte(plaintext), encrypted)

		decrypted, err := c.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestCipherEmptyValues(t *testing.T) {
	c, err := NewCipher(testKey(1))
	require.NoError(t, err)

	encrypted, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, encrypted)

	decrypted, err := c.Decrypt(nil)
	require.NoError(t, err)
	assert.Equal(t, "", decrypted)
}

func TestCipherNonDeterministicCiphertext(t *testing.T) {
	c, err := NewCipher(testKey(1))
	require.NoError(t, err)

	first, err := c.Encrypt("john@example.com")
	require.NoError(t, err)
	second, err := c.Encrypt("john@example.com")
	require.NoError(t, err)

	// Random nonces keep identical plaintexts from producing equal blobs,
	// so ciphertext equality can never stand in for a duplicate check.
	assert.NotEqual(t, first, second)
}

func TestCipherWrongKey(t *testing.T) {
	c1, err := NewCipher(testKey(1))
	require.NoError(t, err)
	c2, err := NewCipher(testKey(2))
	require.NoError(t, err)

	encrypted, err := c1.Encrypt("john@example.com")
	require.NoError(t, err)

	_, err = c2.Decrypt(encrypted)
	require.Error(t, err)
	var decErr *DecryptionError
	assert.True(t, errors.As(err, &decErr))
}

func TestCipherTamperedCiphertext(t *testing.T) {
	c, err := NewCipher(testKey(1))
	require.NoError(t, err)

	encrypted, err := c.Encrypt("5551234567")
	require.NoError(t, err)
	encrypted[len(encrypted)-1] ^= 0xff

	_, err = c.Decrypt(encrypted)
	var decErr *DecryptionError
	require.True(t, errors.As(err, &decErr))
}

func TestCipherTruncatedCiphertext(t *testing.T) {
	c, err := NewCipher(testKey(1))
	require.NoError(t, err)

	_, err = c.Decrypt([]byte{0x01, 0x02})
	var decErr *DecryptionError
	require.True(t, errors.As(err, &decErr))
}

func TestNewCipherRejectsBadKeySize(t *testing.T) {
	_, err := NewCipher([]byte("short"))
	require.Error(t, err)
}
