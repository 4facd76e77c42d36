package main

import (
	"os"
	"runtime"

	"github.com/bnema/wew/internal/cli"
	"github.com/bnema/wew/internal/cli/cmd"
	"github.com/bnema/wew/pkg/wew"
)

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// The engine relaunches this binary for its renderer, GPU and utility
	// processes. Those must never reach the CLI.
	if wew.IsSubprocess() {
		if !wew.ExecuteSubprocess() {
			os.Exit(1)
		}
		os.Exit(wew.ExitCode())
	}

	enableCrashForensics()

	cmd.SetBuildInfo(cli.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
	})
	cmd.Execute()
}
