package ownmapdal

import (
	"os"
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/userextra"
)

const defaultRootDir = "~/.local/share/github.com/jamesrr39/ownmap-styler/"

type PathsConfig struct {
	StylesDir string
	TraceDir  string
}

// DefaultPathsConfig puts everything under the user's local share dir
func DefaultPathsConfig() (*PathsConfig, errorsx.Error) {
	rootDir, err := userextra.ExpandUser(defaultRootDir)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return &PathsConfig{
		StylesDir: filepath.Join(rootDir, "styles"),
		TraceDir:  filepath.Join(rootDir, "trace"),
	}, nil
}

func (pc *PathsConfig) EnsurePaths() errorsx.Error {
	for _, dirPath := range []string{pc.StylesDir, pc.TraceDir} {
		err := os.MkdirAll(dirPath, 0755)
		if err != nil {
			return errorsx.Wrap(err, "path", dirPath)
		}
	}

	return nil
}
