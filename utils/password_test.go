package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "Sup3rSecret" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "Sup3rSecret") {
		t.Error("correct password should verify")
	}
	if CheckPassword(hash, "sup3rsecret") {
		t.Error("wrong password should not verify")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Sup3rSecret", false},
		{"Ab1defgh", false},
		{"short1A", true},
		{"alllowercase1", true},
		{"ALLUPPERCASE1", true},
		{"NoDigitsHere", true},
	}
	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}
