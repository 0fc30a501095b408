package auth

import (
	"testing"
	"time"
)

func TestIssueParseRoundTrip(t *testing.T) {
	token, exp, err := Issue(1712834100000, "anna123", "student", "classlink", "test-key", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry %v not in the future", exp)
	}

	claims, err := Parse(token, "test-key", "classlink")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 1712834100000 {
		t.Errorf("UserID = %d", claims.UserID)
	}
	if claims.Role != "student" {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.Subject != "anna123" {
		t.Errorf("Subject = %q", claims.Subject)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue(1, "anna123", "student", "classlink", "right-key", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "wrong-key", "classlink"); err == nil {
		t.Fatal("token signed with another key parsed")
	}
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	token, _, err := Issue(1, "anna123", "student", "other-app", "test-key", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "test-key", "classlink"); err == nil {
		t.Fatal("token from another issuer parsed")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue(1, "anna123", "student", "classlink", "test-key", -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "test-key", "classlink"); err == nil {
		t.Fatal("expired token parsed")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("not-a-token", "test-key", "classlink"); err == nil {
		t.Fatal("garbage parsed as token")
	}
}
