package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Requirement defines an external tool the optimizer relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency. Command holds the
// resolved path when the binary was found.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, checkRequirement(req))
	}
	return results
}

// checkRequirement resolves a single requirement. A command containing a path
// separator is treated as an explicit location and checked directly; a bare
// name is resolved from PATH the same way the process spawn will resolve it.
func checkRequirement(req Requirement) Status {
	command := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     command,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if command == "" {
		status.Detail = "command not configured"
		return status
	}

	if strings.ContainsRune(command, os.PathSeparator) {
		info, err := os.Stat(command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", command)
			return status
		}
		if !isExecutable(info) {
			status.Detail = fmt.Sprintf("%q is not an executable file", command)
			return status
		}
		status.Available = true
		return status
	}

	resolved, err := exec.LookPath(command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found on PATH", command)
		return status
	}
	status.Command = resolved
	status.Available = true
	return status
}
