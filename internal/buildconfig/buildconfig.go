package buildconfig

// Build-time variables injected via ldflags:
//
//	go build -ldflags "-X github.com/Harshitk-cp/crmgate/internal/buildconfig.version=v1.2.0"
var (
	version = "dev"
	commit  = "unknown"
)

// Version returns the build version
func Version() string {
	return version
}

// Commit returns the git commit hash
func Commit() string {
	return commit
}
