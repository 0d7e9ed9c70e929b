package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSizeText(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"12.5 MB", 13107200},
		{"830KB", 849920},
		{"1.5 GB", 1610612736},
		{"512 B", 512},
		{"2M", 2097152},
		{"1048576", 1048576},
		{"", 0},
		{"unknown", 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, parseSizeText(tc.in), "input %q", tc.in)
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.00 KB", formatSize(1024))
	assert.Equal(t, "2.50 MB", formatSize(2621440))
	assert.Equal(t, "1.00 GB", formatSize(1<<30))
}
