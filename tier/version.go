package tier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed semantic version: MAJOR.MINOR.PATCH[-PRE][+BUILD].
// Build metadata is retained for display but ignored by Compare.
type Version struct {
	Major, Minor, Patch int
	Prerelease          string
	Build                string
	raw                  string
}

var semverPattern = regexp.MustCompile(
	`^(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?(?:\+([0-9A-Za-z.-]+))?$`,
)

// ErrInvalidVersion is returned when a string does not match
// MAJOR.MINOR.PATCH[-PRE][+BUILD].
var ErrInvalidVersion = fmt.Errorf("invalid semantic version")

// ParseVersion parses a semantic version string.
func ParseVersion(s string) (Version, error) {
	m := semverPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])

	return Version{
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		Prerelease: m[4],
		Build:      m[5],
		raw:        s,
	}, nil
}

// String returns the original parsed text.
func (v Version) String() string {
	if v.raw != "" {
		return v.raw
	}
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Compare returns -1, 0, or 1 comparing v to other, implementing full
// semver precedence: numeric component-wise on (major, minor, patch); a
// version with a prerelease is less than the same version without one;
// prereleases compare by dot-separated identifiers (numeric identifiers
// compare numerically and a numeric identifier is always less than an
// alphanumeric one). Build metadata never participates.
func (v Version) Compare(other Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}

	switch {
	case v.Prerelease == "" && other.Prerelease == "":
		return 0
	case v.Prerelease == "" && other.Prerelease != "":
		return 1
	case v.Prerelease != "" && other.Prerelease == "":
		return -1
	default:
		return comparePrerelease(v.Prerelease, other.Prerelease)
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func comparePrerelease(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if c := compareIdentifier(aParts[i], bParts[i]); c != 0 {
			return c
		}
	}

	return compareInt(len(aParts), len(bParts))
}

func compareIdentifier(a, b string) int {
	aNum, aIsNum := identifierAsInt(a)
	bNum, bIsNum := identifierAsInt(b)

	switch {
	case aIsNum && bIsNum:
		return compareInt(aNum, bNum)
	case aIsNum && !bIsNum:
		return -1
	case !aIsNum && bIsNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func identifierAsInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
