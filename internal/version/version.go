// Package version provides the build version of the module
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

// set by the linker:
// -ldflags "-X github.com/effective-security/pkcs10/internal/version.Build=v1.2.3"
var (
	Build  string
	Commit string
)

// Info describes the version
type Info struct {
	Major   uint
	Minor   uint
	Patch   uint
	Commit  string
	Runtime string
	Build   string
}

func (v Info) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Commit != "" {
		s += "-" + v.Commit
	}
	return s
}

// Float returns the version as major.minor
func (v Info) Float() float32 {
	f, _ := strconv.ParseFloat(fmt.Sprintf("%d.%d", v.Major, v.Minor), 32)
	return float32(f)
}

// Current returns the version of the build
func Current() Info {
	build := Build
	if build == "" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "(devel)" {
			build = bi.Main.Version
		}
	}
	return parse(build, Commit)
}

func parse(build, commit string) Info {
	v := Info{
		Build:   build,
		Commit:  commit,
		Runtime: runtime.Version(),
	}

	s := strings.TrimPrefix(build, "v")
	// drop pre-release and build metadata
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		if v.Commit == "" {
			v.Commit = s[i+1:]
		}
		s = s[:i]
	}

	parts := strings.SplitN(s, ".", 3)
	vals := []*uint{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			break
		}
		*vals[i] = uint(n)
	}
	return v
}
