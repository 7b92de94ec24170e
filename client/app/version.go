// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package app

import (
	"fmt"
	"runtime"
)

// Version is the application version. It is a semantic version string.
var Version = "0.1.0-pre"

// VersionString describes the application version and the go runtime.
func VersionString(appName string) string {
	return fmt.Sprintf("%s version %s (Go version %s %s/%s)", appName, Version,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
