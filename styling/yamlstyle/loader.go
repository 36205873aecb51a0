package yamlstyle

import (
	"path/filepath"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/styling"
)

var fileExtensions = []string{".yml", ".yaml"}

// StyleIDFromPath gives the style ID of a stylesheet file: its file name without the extension
func StyleIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func IsStylesheetFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, fileExtension := range fileExtensions {
		if ext == fileExtension {
			return true
		}
	}
	return false
}

// LoadFile loads one stylesheet. Image attributes in it are relative to the directory it is in.
func LoadFile(fs gofs.Fs, path string) (*styling.Stylesheet, errorsx.Error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}
	defer file.Close()

	stylesheet, err := parse(StyleIDFromPath(path), filepath.Dir(path), file)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	return stylesheet, nil
}

// LoadDir loads every stylesheet file in a directory, sorted by file name.
// A file that fails to load fails the whole directory: a partially loaded style set is not served.
func LoadDir(logger *logpkg.Logger, fs gofs.Fs, dir string) ([]*styling.Stylesheet, errorsx.Error) {
	fileInfos, err := fs.ReadDir(dir)
	if err != nil {
		return nil, errorsx.Wrap(err, "dir", dir)
	}

	var stylesheets []*styling.Stylesheet
	for _, fileInfo := range fileInfos {
		if fileInfo.IsDir() || !IsStylesheetFile(fileInfo.Name()) {
			continue
		}

		path := filepath.Join(dir, fileInfo.Name())
		stylesheet, err := LoadFile(fs, path)
		if err != nil {
			return nil, err
		}

		logger.Info("loaded stylesheet %q from %q (%d rules)", stylesheet.GetStyleID(), path, len(stylesheet.Rules()))
		stylesheets = append(stylesheets, stylesheet)
	}

	return stylesheets, nil
}
