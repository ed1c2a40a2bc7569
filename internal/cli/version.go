package cli

import "runtime/debug"

// version returns the module version, or the vcs revision for local builds.
// Binaries built by `go test` or `go run` carry neither.
func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}

	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}

	if revision == "" {
		return "dev"
	}
	if modified == "true" {
		return revision + "-dirty"
	}

	return revision
}
