package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashingLifecycle(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	password := "S3curePass!"
	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("unexpected error hashing password: %v", err)
	}
	if hash == "" {
		t.Fatal("expected hash to be populated")
	}

	if err := hasher.Verify(hash, password); err != nil {
		t.Fatalf("expected password to verify, got error: %v", err)
	}

	if err := hasher.Verify(hash, "wrong"); err == nil {
		t.Fatal("expected verification to fail for wrong password")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)
	if _, err := hasher.Hash("   "); err == nil {
		t.Fatal("expected error for blank password")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{name: "below minimum", cost: 0, want: bcrypt.DefaultCost},
		{name: "above maximum", cost: 99, want: bcrypt.MaxCost},
		{name: "in range", cost: 8, want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewHasher(tt.cost).cost; got != tt.want {
				t.Errorf("expected cost %d, got %d", tt.want, got)
			}
		})
	}
}
