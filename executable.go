package sliqsim

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

/*
FindExecutable returns the first of paths that is an existing regular file,
falling back to a SliQSim binary on $PATH.
*/
func FindExecutable(paths []string) (string, error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}

	if path, err := exec.LookPath(executableName()); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w (searched %s and $PATH)", ErrExecutableNotFound, strings.Join(paths, ", "))
}
