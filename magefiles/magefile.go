//go:build mage

// Package main provides build targets for padkit using Mage.
//
// Usage:
//
//	mage build        Compile the padkit binary to bin/
//	mage test:all     Run every test
//	mage test:unit    Run tests without the race detector or cache
//	mage test:race    Run tests with the race detector
//	mage test:cover   Write coverage.out and print a summary
//	mage lint         Run golangci-lint
//	mage clean        Remove build artifacts
//	mage install      Install padkit to GOPATH/bin
//	mage stats        Print Go lines of code
package main

const (
	binGo      = "go"
	binaryName = "padkit"
	binaryDir  = "bin"
	cmdDir     = "./cmd/padkit"
	modulePath = "github.com/mesh-intelligence/padkit"
)
