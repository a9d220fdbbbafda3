package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get home dir: %v", err)
	}
	t.Setenv("SATANG_TEST_DATA", "/var/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "absolute unchanged", in: "/tmp/satang.db", want: "/tmp/satang.db"},
		{name: "tilde prefix", in: "~/.local/share/satang/satang.db", want: filepath.Join(home, ".local/share/satang/satang.db")},
		{name: "bare tilde", in: "~", want: home},
		{name: "env var", in: "$SATANG_TEST_DATA/satang.db", want: "/var/data/satang.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandPath(tt.in); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
