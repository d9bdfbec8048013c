package updates

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a 4-component build version (major.minor.build.revision).
// Missing trailing components default to zero, so "1.2" == "1.2.0.0".
type Version [4]int

// ParseVersion parses a version string into its 4-component form. A leading
// "v" or "V" is tolerated, every present component must be numeric.
func ParseVersion(s string) (Version, error) {
	var v Version

	trimmed := strings.TrimLeft(strings.TrimSpace(s), "vV")
	if trimmed == "" {
		return v, fmt.Errorf("empty version string %q", s)
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) > 4 {
		parts = parts[:4]
	}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not numeric", s, part)
		}
		v[i] = n
	}
	return v, nil
}

// Compare returns -1, 0 or 1 ordering a against b component by component.
func (v Version) Compare(other Version) int {
	for i := 0; i < 4; i++ {
		if v[i] != other[i] {
			if v[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3])
}
