// Package setup turns user input into a validated deployment target.
// It layers defaults, an optional YAML file, environment variables and
// command-line flags, in that order of precedence.
//
// This package is essentially a collection of loaders and constants, and is therefore the only package that is
// allowed to call a global logger.
package setup
