package main

// Version information, set by ldflags at release time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	SetVersionInfo(version, commit)
	Execute()
}
