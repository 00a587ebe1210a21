// Package version carries build-time identity for the scode binaries.
// version and commit are overridden via -ldflags at release build time; name
// is not, since both commands share it and scode-report appends its own
// suffix to it.
package version

var (
	name    = "scode"
	version = "dev"
	commit  = "unknown"
)

func Name() string {
	return name
}

func Version() string {
	return version
}

func Commit() string {
	return commit
}
