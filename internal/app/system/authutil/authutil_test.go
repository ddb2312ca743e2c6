package authutil

import (
	"strings"
	"testing"
)

func TestValidatePasswordStrength_Valid(t *testing.T) {
	valid := []string{
		"Str0ng!Pass",
		"Abcdef1#",
		"Zz9~zzzz",
		"Ünïcødé9!x",
		"P@ssw0rd",
		"Password1!",
		strings.Repeat("Aa1!", 18), // 72 bytes
	}
	for _, pw := range valid {
		res := ValidatePasswordStrength(pw)
		if !res.IsValid {
			t.Errorf("expected %q to be valid, got %v", pw, res.Errors)
		}
		if len(res.Errors) != 0 {
			t.Errorf("valid password %q reported errors %v", pw, res.Errors)
		}
	}
}

func TestValidatePasswordStrength_ExactlyOneRuleBroken(t *testing.T) {
	tests := []struct {
		pw   string
		want string
	}{
		{"Ab1!xyz", MsgTooShort},
		{strings.Repeat("Aa1!", 18) + "A", MsgTooLong},
		{"abcdef1!", MsgNoUpper},
		{"ABCDEF1!", MsgNoLower},
		{"Abcdefg!", MsgNoDigit},
		{"Abcdefg1", MsgNoSpecial},
	}
	for _, tt := range tests {
		res := ValidatePasswordStrength(tt.pw)
		if res.IsValid {
			t.Errorf("%q: expected invalid", tt.pw)
			continue
		}
		if len(res.Errors) != 1 || res.Errors[0] != tt.want {
			t.Errorf("%q: errors = %v, want only %q", tt.pw, res.Errors, tt.want)
		}
	}
}

func TestValidatePasswordStrength_Empty(t *testing.T) {
	res := ValidatePasswordStrength("")
	if res.IsValid {
		t.Fatal("empty password reported valid")
	}
	want := []string{MsgTooShort, MsgNoUpper, MsgNoLower, MsgNoDigit, MsgNoSpecial}
	if len(res.Errors) != len(want) {
		t.Fatalf("errors = %v, want %v", res.Errors, want)
	}
	for i := range want {
		if res.Errors[i] != want[i] {
			t.Errorf("errors[%d] = %q, want %q", i, res.Errors[i], want[i])
		}
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	pw := "Str0ng!Pass"

	hash, err := HashPassword(pw)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == pw {
		t.Error("hash should not equal plain password")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected bcrypt hash, got %q", hash)
	}
	if !ComparePassword(pw, hash) {
		t.Error("ComparePassword returned false for the original password")
	}

	// every single-character mutation fails
	for i := range pw {
		b := []byte(pw)
		b[i] ^= 0x01
		if ComparePassword(string(b), hash) {
			t.Errorf("mutation %q matched", string(b))
		}
	}
	if ComparePassword(pw[:len(pw)-1], hash) {
		t.Error("truncated password matched")
	}
	if ComparePassword(pw+"x", hash) {
		t.Error("extended password matched")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("Str0ng!Pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	h2, err := HashPassword("Str0ng!Pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if h1 == h2 {
		t.Error("expected different hashes for same password (random salt)")
	}
}

func TestComparePassword_InvalidHash(t *testing.T) {
	if ComparePassword("Str0ng!Pass", "not-a-valid-hash") {
		t.Error("expected false for invalid hash")
	}
	if ComparePassword("", "") {
		t.Error("expected false for empty hash")
	}
}

func TestPasswordRules(t *testing.T) {
	if !strings.Contains(PasswordRules(), "8") {
		t.Error("expected PasswordRules to mention the minimum length")
	}
}
