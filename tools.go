//go:build tools

package tools

// This file tracks versions of CLI tool dependencies.
// It is not compiled into the binary.
//
// Tools used during development:
// - github.com/pressly/goose/v3/cmd/goose (writing and inspecting migrations)
