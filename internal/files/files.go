// Package files implements the file path helpers used to locate grammar files.
package files

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Exists returns true if filePath exists and is a regular file.
func Exists(filePath string) bool {
	info, err := os.Stat(filePath)
	return err == nil && info.Mode().IsRegular()
}

// ResolvePath replaces a leading "~" or "~user" by the corresponding home directory and cleans
// the result. Paths not starting with "~" are only cleaned.
//
// It returns an error if filePath names an unknown user (e.g: `~unknown/grammar.yaml`).
func ResolvePath(filePath string) (string, error) {
	if filePath == "" || filePath[0] != '~' {
		return filepath.Clean(filePath), nil
	}
	rest := filePath[1:]
	userName, tail, _ := strings.Cut(rest, string(filepath.Separator))
	var (
		usr *user.User
		err error
	)
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to lookup home directory for user in path %q", filePath)
	}
	return filepath.Join(usr.HomeDir, tail), nil
}
