package cli

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestBanner(t *testing.T) {
	t.Parallel()

	out := banner("RED", 11, AlignCenter)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	assert.Len(t, lines, 3)
	assert.Equal(t, "╒═════════╕", lines[0])
	assert.Equal(t, "│   RED   │", lines[1])
	assert.Equal(t, "└─────────┘", lines[2])
}

func TestBannerAlignment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		alignment int
		want      string
	}{
		{"left", AlignLeft, "│ab   │"},
		{"right", AlignRight, "│   ab│"},
		{"center", AlignCenter, "│ ab  │"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lines := strings.Split(banner("ab", 7, tt.alignment), "\n")
			assert.Equal(t, tt.want, lines[1])
		})
	}
}

func TestBannerTruncates(t *testing.T) {
	t.Parallel()

	lines := strings.Split(banner("GREEN-LIGHT", 8, AlignLeft), "\n")

	assert.Equal(t, "│GREEN…│", lines[1])
	assert.Equal(t, 8, utf8.RuneCountInString(lines[1]))
}

func TestBannerInvalid(t *testing.T) {
	t.Parallel()

	assert.Empty(t, banner("", 20, AlignLeft))
	assert.Empty(t, banner("x", 2, AlignLeft))
	assert.Empty(t, banner("x", 20, 42))
}
