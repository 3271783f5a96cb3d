package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info returns version information populated via -ldflags.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion returns the service version reported by /healthz.
func GetVersion() string { return version }

// GetCommit returns the VCS revision the binary was built from.
func GetCommit() string { return commit }

// GetDate returns the build date.
func GetDate() string { return date }

// String formats build info for the startup log.
func String() string {
	return fmt.Sprintf("todo-service version=%s commit=%s date=%s", version, commit, date)
}
