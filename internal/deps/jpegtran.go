package deps

import (
	"os"
	"runtime"
	"strings"
)

// JpegtranRequirement describes the optimizer binary configured for runs.
func JpegtranRequirement(command string) Requirement {
	return Requirement{
		Name:        "jpegtran",
		Command:     strings.TrimSpace(command),
		Description: "Lossless JPEG optimizer",
	}
}

// CheckJpegtran reports whether the jpegtran binary the optimizer would
// execute is present and runnable.
func CheckJpegtran(command string) Status {
	req := JpegtranRequirement(command)
	status := checkRequirement(req)
	if req.Command == "" {
		status.Command = "jpegtran"
	}
	return status
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// ExecutableName appends the platform executable suffix to base.
func ExecutableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
