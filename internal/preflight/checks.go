// Package preflight validates the environment before the daemon starts
// processing: required binaries on PATH and working directories that are
// readable and writable.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"reel/internal/config"
)

// Result reports the outcome of one environment check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Requirement defines an external binary the daemon relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Result {
	results := make([]Result, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		result := Result{Name: req.Name}
		switch {
		case cmd == "":
			result.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				result.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				result.Passed = true
				result.Detail = cmd
			}
		}
		if req.Optional && !result.Passed {
			result.Passed = true
			result.Detail += " (optional)"
		}
		results = append(results, result)
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// Run evaluates every check the daemon depends on.
func Run(cfg *config.Config) []Result {
	results := CheckBinaries([]Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Engine.FFmpegBinary,
			Description: "Required for conversion",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Engine.FFprobeBinary,
			Description: "Required for media inspection",
		},
	})
	results = append(results,
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	)
	return results
}

// Failures filters results down to failed checks.
func Failures(results []Result) []Result {
	var failed []Result
	for _, res := range results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}
