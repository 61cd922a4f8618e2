//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary       = "bin/worldboard"
	mainPkg      = "./cmd/server"
	coverProfile = "coverage.out"
)

// Default target when running mage without arguments.
var Default = Build

// tools are the development tools installed by Install.
var tools = []string{
	"github.com/google/wire/cmd/wire@v0.7.0",
	"github.com/swaggo/swag/cmd/swag@v1.16.6",
	"github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
}

// Gen groups code generation targets.
type Gen mg.Namespace

// Wire regenerates internal/app/wire_gen.go.
func (Gen) Wire() error {
	fmt.Println("Running wire...")
	return sh.RunV("wire", "gen", "./internal/app")
}

// Swagger regenerates docs/ from the handler annotations.
func (Gen) Swagger() error {
	fmt.Println("Generating swagger docs...")
	return sh.RunV("swag", "init",
		"-g", "cmd/server/docs.go",
		"-o", "docs",
		"--outputTypes", "go",
		"--parseInternal",
	)
}

// All runs every generator.
func (Gen) All() {
	mg.Deps(Gen.Wire, Gen.Swagger)
}

// Build compiles the server into bin/worldboard.
func Build() error {
	mg.Deps(Gen.All)
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-trimpath", "-o", binary, mainPkg)
}

// Test runs the test suite with the race detector. Set RUN to filter tests.
func Test() error {
	return goTest()
}

// Cover runs the tests with a coverage profile and prints the summary.
func Cover() error {
	if err := goTest("-covermode=atomic", "-coverprofile="+coverProfile); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+coverProfile)
}

func goTest(extra ...string) error {
	args := append([]string{"test", "-race", "-count=1"}, extra...)
	if run := os.Getenv("RUN"); run != "" {
		args = append(args, "-run", run)
	}
	args = append(args, "./...")
	fmt.Println("Running tests...")
	return sh.RunV("go", args...)
}

// Lint runs go vet and golangci-lint.
func Lint() error {
	fmt.Println("Linting...")
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Tidy runs go mod tidy.
func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

// Clean removes build and coverage output.
func Clean() error {
	fmt.Println("Cleaning...")
	for _, path := range []string{"bin", coverProfile} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}

// Serve builds and runs the server with configs/config.yaml.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(binary, "-config", "configs/config.yaml")
}

// CI runs what the pipeline checks: tidy, generate, lint, coverage.
func CI() {
	mg.SerialDeps(Tidy, Gen.All, Lint, Cover)
}

// All runs tidy, generation, lint, tests and build.
func All() {
	mg.SerialDeps(Tidy, Gen.All, Lint, Test, Build)
}

// Install installs the generator and lint tools.
func Install() error {
	for _, tool := range tools {
		fmt.Println("Installing", tool)
		if err := sh.RunV("go", "install", tool); err != nil {
			return fmt.Errorf("install %s: %w", tool, err)
		}
	}
	return nil
}
