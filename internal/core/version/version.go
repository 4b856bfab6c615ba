// Package version reports build metadata stamped in with -ldflags
package version

// BuildInfo holds version information about the service build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information
//
//	go build -ldflags "-X 'mdms/internal/core/version.version=v0.3.0' \
//	  -X 'mdms/internal/core/version.commit=abcd' -X 'mdms/internal/core/version.date=2026-10-01'"
func Info() BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

var (
	service = "mdms-api"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
