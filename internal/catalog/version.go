package catalog

import "strings"

// versionPart is one run of digits or letters in a version string.
// Numeric runs order before text runs, so "1.2" < "1.2rc".
type versionPart struct {
	num  uint64
	text string
	nums bool
}

// CompareVersions orders two dotted version strings, returning -1, 0 or 1.
// Digit runs compare numerically ("1.10" > "1.9"), letter runs compare as
// lowercased text, separators only split. A missing trailing part counts
// as zero, so "1.2" equals "1.2.0".
func CompareVersions(a, b string) int {
	pa, pb := parseVersion(a), parseVersion(b)

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}

	zero := versionPart{nums: true}
	for i := 0; i < n; i++ {
		x, y := zero, zero
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		if c := x.compare(y); c != 0 {
			return c
		}
	}
	return 0
}

// UpdateAvailable reports whether the catalog offers a newer version than
// the installed one.
func UpdateAvailable(installed, available string) bool {
	if installed == "" || available == "" {
		return false
	}
	return CompareVersions(installed, available) < 0
}

func (p versionPart) compare(q versionPart) int {
	switch {
	case p.nums && q.nums:
		if p.num != q.num {
			if p.num < q.num {
				return -1
			}
			return 1
		}
		return 0
	case p.nums:
		return -1
	case q.nums:
		return 1
	default:
		return strings.Compare(p.text, q.text)
	}
}

func parseVersion(s string) []versionPart {
	var parts []versionPart
	var num uint64
	var text strings.Builder
	inNum := false

	flush := func() {
		if inNum {
			parts = append(parts, versionPart{num: num, nums: true})
			num = 0
			inNum = false
		}
		if text.Len() > 0 {
			parts = append(parts, versionPart{text: strings.ToLower(text.String())})
			text.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			if text.Len() > 0 {
				flush()
			}
			num = num*10 + uint64(r-'0')
			inNum = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			if inNum {
				flush()
			}
			text.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return parts
}
