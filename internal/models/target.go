package models

import (
	"path/filepath"
	"strings"
	"time"
)

// ProjectKind identifies what kind of WordPress package is being published.
type ProjectKind string

// Supported project kinds.
const (
	KindPlugin ProjectKind = "plugin"
	KindTheme  ProjectKind = "theme"
)

// ParseProjectKind validates value as a project kind.
func ParseProjectKind(value string) (ProjectKind, error) {
	switch kind := ProjectKind(value); kind {
	case KindPlugin, KindTheme:
		return kind, nil
	default:
		return "", Invalidf(ErrInvalidKind, "type has to be %q or %q, invalid type given: %q", KindPlugin, KindTheme, value)
	}
}

// DefaultTimeout bounds every HTTP request issued during a run.
const DefaultTimeout = 30 * time.Second

// DeploymentTarget is the remote side of a single publish run.
type DeploymentTarget struct {
	// BaseURL always ends with exactly one "/".
	BaseURL            string
	Username           string
	Credential         string
	Kind               ProjectKind
	Slug               string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// NormalizeBaseURL trims surrounding whitespace and forces a single trailing slash.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/") + "/"
}

// DeriveSlug returns the archive's base filename without its extension.
func DeriveSlug(archivePath string) string {
	base := filepath.Base(archivePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
