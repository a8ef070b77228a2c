package jwt

import (
	"testing"
)

// FuzzVerify feeds arbitrary strings to Verify. Nothing may panic and the
// only error is ErrTokenInvalid.
func FuzzVerify(f *testing.F) {
	secret, err := GenerateSecret()
	if err != nil {
		f.Fatal(err)
	}
	mgr, err := NewManager(Config{Secret: secret, Issuer: "fuzz-test"})
	if err != nil {
		f.Fatal(err)
	}

	validToken, err := mgr.Issue("uid1", "fuzz@example.com")
	if err != nil {
		f.Fatal(err)
	}

	f.Add(validToken)
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.eyJzdWIiOiJ4In0.")
	f.Add(validToken + "x")

	f.Fuzz(func(t *testing.T, token string) {
		claims, err := mgr.Verify(token)
		if err != nil {
			if err != ErrTokenInvalid {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		if claims.Subject == "" {
			t.Fatal("verified token must carry a subject")
		}
	})
}
