package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zaptest"

	consts "github.com/khanhnv2901/vigilante/internal/shared/constants"
)

// setupTestAppContext installs an AppContext rooted in a temporary data directory
// and resets the shared runtime config. The returned func restores the previous state.
func setupTestAppContext(t *testing.T) func() {
	t.Helper()

	originalCtx := globalAppContext
	originalCfg := *cliConfig

	dataDir := os.Getenv(dataDirEnvVar)
	if dataDir == "" {
		dataDir = t.TempDir()
		t.Setenv(dataDirEnvVar, dataDir)
	}

	reportsDir := filepath.Join(dataDir, "reports")
	if err := os.MkdirAll(reportsDir, consts.DefaultDirPerm); err != nil {
		t.Fatalf("failed to create reports directory: %v", err)
	}

	logger := zaptest.NewLogger(t)
	*cliConfig = *newCLIConfig()
	globalAppContext = &AppContext{
		Logger:     logger.Sugar(),
		ZapLogger:  logger,
		ReportsDir: reportsDir,
		Config:     cliConfig,
	}

	return func() {
		globalAppContext = originalCtx
		*cliConfig = originalCfg
	}
}

// runCommand runs cmd's RunE with captured output.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}
