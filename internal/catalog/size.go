package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSizeText converts a human size string like "12.5 MB" or "830KB"
// into bytes. Bare numbers are taken as bytes. Unparseable input yields 0;
// the size is advisory, the checksum is what gates integrity.
func parseSizeText(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}

	upper := strings.ToUpper(s)
	units := []struct {
		suffix string
		mult   float64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"G", 1 << 30},
		{"M", 1 << 20},
		{"K", 1 << 10},
		{"B", 1},
	}

	for _, u := range units {
		if !strings.HasSuffix(upper, u.suffix) {
			continue
		}
		num := strings.TrimSpace(strings.TrimSuffix(upper, u.suffix))
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0
		}
		return int64(f * u.mult)
	}

	return 0
}

func formatSize(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	case n < 1<<30:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	default:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	}
}
