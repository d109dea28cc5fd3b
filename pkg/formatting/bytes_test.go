package formatting_test

import (
	"testing"

	"github.com/JaimeStill/sealcheck/pkg/formatting"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"bare bytes", "1024", 1024, false},
		{"kilobytes", "1KB", 1024, false},
		{"template limit", "5MB", 5 * 1024 * 1024, false},
		{"upload limit", "16MB", 16 * 1024 * 1024, false},
		{"lowercase unit", "10mb", 10 * 1024 * 1024, false},
		{"with space", "100 MB", 100 * 1024 * 1024, false},
		{"iec unit", "512KiB", 512 * 1024, false},
		{"fractional", "1.5GB", 1536 * 1024 * 1024, false},
		{"empty string", "", 0, true},
		{"unknown unit", "50XX", 0, true},
		{"negative", "-5MB", 0, true},
		{"unit only", "MB", 0, true},
		{"overflow", "9000000EB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBytes(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name      string
		n         int64
		precision int
		want      string
	}{
		{"zero", 0, 2, "0 B"},
		{"bytes", 500, 0, "500 B"},
		{"bytes ignore precision", 500, 2, "500 B"},
		{"16 MB", 16 * 1024 * 1024, 0, "16 MB"},
		{"fractional MB", 1536 * 1024, 1, "1.5 MB"},
		{"negative precision clamped to zero", 1024, -1, "1 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatting.FormatBytes(tt.n, tt.precision); got != tt.want {
				t.Errorf("FormatBytes(%d, %d) = %q, want %q", tt.n, tt.precision, got, tt.want)
			}
		})
	}
}
