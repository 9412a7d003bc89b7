package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/caresuite/platform/pkg/common/models"
	"github.com/google/uuid"
)

func testManager(t *testing.T) *JWTManager {
	t.Helper()
	manager, err := NewJWTManager("unit-test-signing-key", "clinic", "clinic-api", time.Hour)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}
	return manager
}

func TestIssueAndValidateToken(t *testing.T) {
	manager := testManager(t)
	user := models.User{
		ID:       uuid.New(),
		Username: "asha",
		Role:     models.RolePatient,
	}

	token, err := manager.IssueToken(user)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("user id mismatch: got %s, want %s", claims.UserID, user.ID)
	}
	if claims.Username != "asha" || claims.Role != models.RolePatient {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	manager := testManager(t)
	token, err := manager.IssueToken(models.User{ID: uuid.New(), Username: "asha", Role: models.RolePatient})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := manager.ValidateToken(tampered); err != ErrTokenSignature {
		t.Errorf("expected ErrTokenSignature, got %v", err)
	}

	if _, err := manager.ValidateToken("not-a-token"); err != ErrTokenMalformed {
		t.Errorf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestValidateTokenExpiry(t *testing.T) {
	manager := testManager(t)
	issuedAt := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	manager.nowFunc = func() time.Time { return issuedAt }

	token, err := manager.IssueToken(models.User{ID: uuid.New(), Username: "asha", Role: models.RolePatient})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	manager.nowFunc = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	if _, err := manager.ValidateToken(token); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateTokenAudience(t *testing.T) {
	issuing := testManager(t)
	token, err := issuing.IssueToken(models.User{ID: uuid.New(), Username: "asha", Role: models.RolePatient})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	other, err := NewJWTManager("unit-test-signing-key", "clinic", "other-api", time.Hour)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}
	if _, err := other.ValidateToken(token); err != ErrTokenAudience {
		t.Errorf("expected ErrTokenAudience, got %v", err)
	}
}

func TestNewJWTManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTManager("short", "clinic", "clinic-api", time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
}
