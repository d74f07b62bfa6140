// Package sizestr parses the §6 quota size-string grammar: a decimal
// integer followed by one of kB|MB|GB|TB, or the sentinels -1 ("no
// limit") and 0 ("deny all writes").
package sizestr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentdb/diskquota/pkg/quotaerrors"
	"github.com/segmentdb/diskquota/pkg/types"
)

// ParseMB parses s into a limit expressed in MB (the unit QuotaConfig
// persists), per §6's size-string grammar.
func ParseMB(s string) (int64, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		switch n {
		case types.NoLimit, types.DenyAll:
			return n, nil
		default:
			return 0, quotaerrors.Configuration("sizestr.ParseMB", fmt.Errorf("bare integer %q must be -1 or 0; did you mean to append a unit?", s))
		}
	}

	for _, suffix := range []string{"TB", "GB", "MB", "kB"} {
		if rest, ok := cutSuffix(s, suffix); ok {
			rest = strings.TrimSpace(rest)
			n, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				return 0, quotaerrors.Configuration("sizestr.ParseMB", fmt.Errorf("invalid size string %q: %w", s, err))
			}
			if n < 0 {
				return 0, quotaerrors.Configuration("sizestr.ParseMB", fmt.Errorf("invalid size string %q: negative magnitude", s))
			}
			return mbFromUnits(n, suffix), nil
		}
	}

	return 0, quotaerrors.Configuration("sizestr.ParseMB", fmt.Errorf("invalid size string %q: expected an integer followed by kB|MB|GB|TB, or -1/0", s))
}

func mbFromUnits(n int64, suffix string) int64 {
	switch suffix {
	case "kB":
		return n / 1024
	case "MB":
		return n
	case "GB":
		return n * 1024
	case "TB":
		return n * 1024 * 1024
	default:
		return 0
	}
}

func cutSuffix(s, suffix string) (string, bool) {
	if strings.HasSuffix(s, suffix) {
		return strings.TrimSuffix(s, suffix), true
	}
	return s, false
}
