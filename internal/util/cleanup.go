package util

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// StagingSuffix marks per-run frame directories inside the output folder.
const StagingSuffix = "_tmp"

// SetupInterruptHandler cancels the running capture on SIGINT/SIGTERM,
// removes that run's staging directory and exits. Staging directories
// of other runs are left for `democap clean`.
func SetupInterruptHandler(outputDir, stagingDir string, cancel func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		fmt.Println("\nInterrupt received. Cleaning up...")

		if cancel != nil {
			cancel()
		}
		if RemoveStagingDir(stagingDir) {
			fmt.Printf("Removed %s\n", stagingDir)
		}
		RemoveIfEmpty(outputDir)
		fmt.Println("Exiting due to interrupt.")

		os.Exit(1)
	}()
}

// RemoveStagingDir deletes one run's staging directory and reports
// whether there was anything to delete.
func RemoveStagingDir(dir string) bool {
	if dir == "" || !strings.HasSuffix(filepath.Base(dir), StagingSuffix) {
		return false
	}
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	if err := os.RemoveAll(dir); err != nil {
		fmt.Printf("Error cleaning up %s: %v\n", dir, err)
		return false
	}
	return true
}

// CleanupStagingDirs removes every *_tmp directory directly under
// outputDir and returns the removed paths.
func CleanupStagingDirs(outputDir string) []string {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil
	}

	var removed []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), StagingSuffix) {
			continue
		}

		full := filepath.Join(outputDir, e.Name())
		if err := os.RemoveAll(full); err != nil {
			fmt.Printf("Error cleaning up %s: %v\n", full, err)
			continue
		}
		removed = append(removed, full)
	}

	return removed
}

func RemoveIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}

	if err := os.Remove(dir); err == nil {
		fmt.Printf("Removed empty output folder: %s\n", dir)
	}
}
