// Package version holds the build version and the minimum-version
// gate driven by remote settings.
package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the build version. Overridden at link time:
//
//	go build -ldflags "-X github.com/emberhq/firewatch/internal/version.Version=v0.4.0"
var Version = "v0.3.0"

// Current returns the canonical build version.
func Current() string {
	return canonical(Version)
}

// Check compares the running build against the minimum version the
// unit's settings demand. An empty minimum always passes; records
// written by older sheets have no minimum at all.
func Check(min string) error {
	min = strings.TrimSpace(min)
	if min == "" {
		return nil
	}
	m := canonical(min)
	if !semver.IsValid(m) {
		return fmt.Errorf("settings carry an invalid minimum version %q", min)
	}
	cur := Current()
	if !semver.IsValid(cur) {
		return fmt.Errorf("build version %q is not valid semver", Version)
	}
	if semver.Compare(cur, m) < 0 {
		return fmt.Errorf("firewatch %s is older than the required minimum %s, please upgrade", cur, m)
	}
	return nil
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
