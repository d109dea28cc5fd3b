package storage

import (
	"errors"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"reports/2026/contract_report.pdf", nil},
		{"", ErrEmptyKey},
		{"../etc/passwd", ErrInvalidKey},
		{"reports/../../x.pdf", ErrInvalidKey},
	}

	for _, tt := range tests {
		if err := validateKey(tt.key); !errors.Is(err, tt.want) {
			t.Errorf("validateKey(%q) = %v, want %v", tt.key, err, tt.want)
		}
	}
}
