package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wpselfhosted/wpdeploy/internal/models"
)

// Resolve locates the readme and the single archive inside dir and returns
// their absolute paths. The version is left empty; see ReadVersion.
func Resolve(dir string) (models.Artifact, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Artifact{}, models.Invalidf(models.ErrInvalidPath, "%s does not exist", dir)
		}
		return models.Artifact{}, &models.ValidationError{Kind: models.ErrInvalidPath, Msg: dir, Err: err}
	}
	if !info.IsDir() {
		return models.Artifact{}, models.Invalidf(models.ErrInvalidPath, "%s is not a directory", dir)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return models.Artifact{}, &models.ValidationError{Kind: models.ErrInvalidPath, Msg: dir, Err: err}
	}

	readme := filepath.Join(absDir, models.ReadmeName)
	if !isRegularFile(readme) {
		return models.Artifact{}, models.Invalidf(models.ErrMissingReadme, "cannot find %q in %s", models.ReadmeName, absDir)
	}

	archives, err := findArchives(absDir)
	if err != nil {
		return models.Artifact{}, err
	}
	switch len(archives) {
	case 0:
		return models.Artifact{}, models.Invalidf(models.ErrMissingArchive, "cannot find a zip file in %s", absDir)
	case 1:
	default:
		return models.Artifact{}, models.Invalidf(models.ErrAmbiguousArchive, "found %d zip files in %s", len(archives), absDir)
	}

	return models.Artifact{
		ReadmePath:  readme,
		ArchivePath: archives[0],
	}, nil
}

func findArchives(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(escapeGlob(dir), "*.zip"))
	if err != nil {
		return nil, fmt.Errorf("glob archives: %w", err)
	}
	archives := matches[:0]
	for _, match := range matches {
		if isRegularFile(match) {
			archives = append(archives, match)
		}
	}
	return archives, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// escapeGlob quotes glob metacharacters so a directory like "build[1]" is
// matched literally.
func escapeGlob(path string) string {
	var out []rune
	for _, r := range path {
		switch r {
		case '*', '?', '[', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
