//go:build ignore
// +build ignore

// run from root with `go run build.go`
package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

const (
	// ANSI color codes for styling terminal output
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func main() {
	fmt.Printf("%s=== Starting Build Pipeline ===%s\n", colorCyan, colorReset)
	// Platforms to build for
	platforms := []struct {
		os   string
		arch string
	}{
		//{"windows", "amd64"},
		{"linux", "amd64"},
	}

	// Binaries: the SSUI plugin at the root and the standalone watcher CLI
	targets := []struct {
		name string
		pkg  string
	}{
		{"SaveSnapshotManager", "."},
		{"savesnapshots", "./cmd/savesnapshots"},
	}

	for _, platform := range platforms {
		fmt.Printf("%s\nBuilding for %s/%s...%s\n", colorBlue, platform.os, platform.arch, colorReset)

		// Set OS and architecture for cross-compilation
		os.Setenv("GOOS", platform.os)
		os.Setenv("GOARCH", platform.arch)

		for _, target := range targets {
			outputName := target.name
			switch platform.os {
			case "windows":
				outputName += ".exe"
			case "linux":
				outputName += ".x86_64"
			}
			outputPath := filepath.Join("./", outputName)

			cmd := exec.Command("go", "build", "-ldflags=-s -w", "-gcflags=-l=4", "-o", outputPath, target.pkg)

			cmdOutput, err := cmd.CombinedOutput()
			if err != nil {
				fmt.Printf("%s✗ Build of %s failed for %s/%s:%s %s\nOutput: %s\n",
					colorRed, target.name, platform.os, platform.arch, colorReset, err, string(cmdOutput))
				log.Fatalf("Build process terminated")
			}

			fmt.Printf("%s✓ Build successful!%s Created: %s%s%s\n",
				colorGreen, colorReset, colorYellow, outputPath, colorReset)
		}
	}

	fmt.Printf("%s\n=== Build Pipeline Completed ===%s\n", colorCyan, colorReset)
}
