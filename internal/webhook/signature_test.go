package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":1,"note_attributes":[{"name":"client_cart_id","value":"abc123"}]}`)
	secret := "shpss_test"
	sig := Sign(body, secret)

	assert.True(t, VerifySignature(body, sig, secret))

	t.Run("mutated body", func(t *testing.T) {
		for i := range body {
			mutated := append([]byte(nil), body...)
			mutated[i] ^= 0x01
			assert.False(t, VerifySignature(mutated, sig, secret), "byte %d", i)
		}
	})

	t.Run("mutated header", func(t *testing.T) {
		for i := range sig {
			b := []byte(sig)
			b[i] ^= 0x01
			assert.False(t, VerifySignature(body, string(b), secret), "byte %d", i)
		}
	})

	t.Run("different secret", func(t *testing.T) {
		assert.False(t, VerifySignature(body, sig, "other"))
	})

	t.Run("length mismatch", func(t *testing.T) {
		assert.False(t, VerifySignature(body, sig[:len(sig)-1], secret))
		assert.False(t, VerifySignature(body, sig+"=", secret))
		assert.False(t, VerifySignature(body, "", secret))
	})
}

func TestSign_KnownVector(t *testing.T) {
	// RFC 4231 test case 2, base64 encoded.
	got := Sign([]byte("what do ya want for nothing?"), "Jefe")
	assert.Equal(t, "W9zBRr9gdU5qBCQmCJV1x1oAPwidJzmDnexYuWTsOEM=", got)
}
