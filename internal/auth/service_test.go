package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/leadflow/backend/internal/apperr"
)

type memAdminStore struct {
	byEmail map[string]*Admin
}

func newMemAdminStore() *memAdminStore {
	return &memAdminStore{byEmail: map[string]*Admin{}}
}

func (m *memAdminStore) Create(_ context.Context, a *Admin) error {
	if _, ok := m.byEmail[a.Email]; ok {
		return fmt.Errorf("admin %s: %w", a.Email, apperr.ErrConflict)
	}
	a.ID = uuid.New()
	m.byEmail[a.Email] = a
	return nil
}

func (m *memAdminStore) GetByEmail(_ context.Context, email string) (*Admin, error) {
	a, ok := m.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("admin %s: %w", email, apperr.ErrNotFound)
	}
	return a, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(newMemAdminStore(), "test-secret", time.Hour)
	ctx := context.Background()

	admin, err := svc.Register(ctx, "Root", " Root@Example.com ", "s3cret!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if admin.Email != "root@example.com" {
		t.Errorf("email = %q, want normalized", admin.Email)
	}
	if admin.PasswordHash == "s3cret!" || admin.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	token, err := svc.Login(ctx, "root@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if id != admin.ID {
		t.Errorf("token subject = %s, want %s", id, admin.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := NewService(newMemAdminStore(), "test-secret", time.Hour)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "A", "a@example.com", "password"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, "B", "a@example.com", "password")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestLogin_Rejected(t *testing.T) {
	svc := NewService(newMemAdminStore(), "test-secret", time.Hour)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "A", "a@example.com", "password"); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct{ email, password string }{
		{"a@example.com", "wrong"},
		{"nobody@example.com", "password"},
	} {
		if _, err := svc.Login(ctx, tc.email, tc.password); !errors.Is(err, apperr.ErrAuthRejected) {
			t.Errorf("Login(%q): err = %v, want ErrAuthRejected", tc.email, err)
		}
	}
}

func TestValidateToken_Rejected(t *testing.T) {
	svc := NewService(newMemAdminStore(), "test-secret", time.Hour)
	ctx := context.Background()

	expired := NewService(newMemAdminStore(), "test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.issueToken(uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	otherKey := NewService(newMemAdminStore(), "other-secret", time.Hour)
	foreignToken, err := otherKey.issueToken(uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"garbage":    "not-a-token",
		"expired":    expiredToken,
		"wrong key":  foreignToken,
		"wrong role": noRole,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.ValidateToken(ctx, tok); !errors.Is(err, apperr.ErrAuthRejected) {
				t.Errorf("err = %v, want ErrAuthRejected", err)
			}
		})
	}
}
