package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}
	t.Setenv("LEDGIBLE_TEST_DIR", "/var/data")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/ledgible/ledgible.db", want: filepath.Join(home, "ledgible", "ledgible.db")},
		{in: "$LEDGIBLE_TEST_DIR/ledgible.db", want: "/var/data/ledgible.db"},
		{in: "/absolute/path.db", want: "/absolute/path.db"},
		{in: "relative/path.db", want: "relative/path.db"},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
