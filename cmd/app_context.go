package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// AppContext carries the state shared by every command after PersistentPreRunE.
type AppContext struct {
	Logger     *zap.SugaredLogger
	ZapLogger  *zap.Logger
	ReportsDir string
	ConfigFile string
	Config     *CLIConfig
}

type appContextKey struct{}

// globalAppContext backs getAppContext for commands invoked without a context, such as tests.
var globalAppContext *AppContext

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appContextKey{}, appCtx))
}

func getAppContext(cmd *cobra.Command) *AppContext {
	if ctx := cmd.Context(); ctx != nil {
		if appCtx, ok := ctx.Value(appContextKey{}).(*AppContext); ok {
			return appCtx
		}
	}
	if globalAppContext != nil {
		return globalAppContext
	}
	return &AppContext{
		Logger:    zap.NewNop().Sugar(),
		ZapLogger: zap.NewNop(),
		Config:    newCLIConfig(),
	}
}

// zapLogger returns the structured logger for internal packages.
func (a *AppContext) zapLogger() *zap.Logger {
	if a == nil || a.ZapLogger == nil {
		return zap.NewNop()
	}
	return a.ZapLogger
}
