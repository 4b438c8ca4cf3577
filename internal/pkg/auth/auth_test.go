package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return NewService("test-secret", "admin", string(hash), time.Hour)
}

func TestLogin(t *testing.T) {
	s := newTestService(t)

	token, exp, err := s.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" || exp.IsZero() {
		t.Fatal("expected token and expiry")
	}

	claims, err := s.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != RoleAdmin {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	s := newTestService(t)

	for _, c := range []struct{ user, pass string }{
		{"admin", "wrong"},
		{"root", "s3cret"},
	} {
		if _, _, err := s.Login(c.user, c.pass); !errors.Is(err, ErrBadCredentials) {
			t.Errorf("%s/%s: expected ErrBadCredentials, got %v", c.user, c.pass, err)
		}
	}

	noHash := NewService("secret", "admin", "", time.Hour)
	if _, _, err := noHash.Login("admin", ""); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials without a configured hash, got %v", err)
	}
}

func TestValidate_Expired(t *testing.T) {
	s := newTestService(t)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := s.Issue("admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	s.now = time.Now
	if _, err := s.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	s := newTestService(t)
	other := NewService("another-secret", "admin", "", time.Hour)

	token, _, err := other.Issue("admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := s.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	s := newTestService(t)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.Validate(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("pw")); err != nil {
		t.Errorf("hash does not match: %v", err)
	}
}
