package pe

import "strings"

// ParsedName is plugin metadata recovered from an on-disk file name, used
// when adopting plugins that were placed on the medium by other tools.
type ParsedName struct {
	Name     string
	Version  string
	Author   string
	Describe string
}

// ParsePluginFileName decodes a plugin file name (enabled or disabled form)
// back into its metadata fields. Returns false when the name does not
// follow the kind's packing convention.
func (k Kind) ParsePluginFileName(fileName string) (ParsedName, bool) {
	base := fileName
	l := layouts[k]

	lower := strings.ToLower(base)
	switch {
	case strings.HasSuffix(lower, strings.ToLower(l.disabledExt)):
		base = base[:len(base)-len(l.disabledExt)]
	case strings.HasSuffix(lower, strings.ToLower(l.enabledExt)):
		base = base[:len(base)-len(l.enabledExt)]
	default:
		return ParsedName{}, false
	}

	parts := strings.Split(base, "_")

	switch k {
	case CloudPE:
		// name_version_author_describe, describe may itself contain "_"
		if len(parts) < 4 {
			return ParsedName{}, false
		}
		return ParsedName{
			Name:     parts[0],
			Version:  parts[1],
			Author:   parts[2],
			Describe: strings.Join(parts[3:], "_"),
		}, true
	case HotPE:
		// name_author_version[_describe]
		if len(parts) < 3 {
			return ParsedName{}, false
		}
		p := ParsedName{Name: parts[0], Author: parts[1], Version: parts[2]}
		if len(parts) > 3 {
			p.Describe = strings.Join(parts[3:], "_")
		}
		return p, true
	}

	return ParsedName{}, false
}
