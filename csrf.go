package authcore

import "github.com/MrEthical07/authcore/internal"

// CSRFTokenBytes is the entropy of tokens from NewCSRFToken.
const CSRFTokenBytes = 32

// NewCSRFToken returns 32 random bytes, hex encoded.
func NewCSRFToken() (string, error) {
	return internal.RandomHex(CSRFTokenBytes)
}
