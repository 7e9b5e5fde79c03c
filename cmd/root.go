package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	consts "github.com/khanhnv2901/vigilante/internal/shared/constants"
)

const (
	configFileName = ".vigilante"
	envPrefix      = "VIGILANTE"
)

var (
	cfgFile string
	debug   bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "vigilante",
	Short: "Scan web pages for client-side security issues",
	Long: `Vigilante inspects a web page's DOM, scripts, cookies, storage and response
headers, evaluates a catalog of security rules and reports a weighted risk score.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := initConfig()
		if err != nil {
			return err
		}
		applyConfigDefaults(cmd)

		if noColor {
			color.NoColor = true
		}

		zl, err := newLogger(debug)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		reportsDir, err := resolveReportsDir(viper.GetString("reports_dir"))
		if err != nil {
			return err
		}

		storeAppContext(cmd, &AppContext{
			Logger:     zl.Sugar(),
			ZapLogger:  zl,
			ReportsDir: reportsDir,
			ConfigFile: configFile,
			Config:     cliConfig,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appCtx := getAppContext(cmd); appCtx.ZapLogger != nil {
			_ = appCtx.ZapLogger.Sync()
		}
	},
}

// initConfig reads $HOME/.vigilante.yaml (or --config) and binds VIGILANTE_* env vars.
// A missing default config file is not an error. It returns the file used, if any.
func initConfig() (string, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(configFileName)
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return viper.ConfigFileUsed(), nil
}

// newLogger is the production config raised to warn level so scan output stays
// readable; debug switches to the development config.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func resolveReportsDir(configured string) (string, error) {
	dir := configured
	if dir == "" {
		var err error
		if dir, err = getReportsDir(); err != nil {
			return "", err
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if err := os.MkdirAll(dir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	return dir, nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := exitCode(err)
		mark := colorError("✗")
		if code == exitThreshold {
			mark = colorWarn("⚠")
		}
		fmt.Fprintf(os.Stderr, "%s %v\n", mark, err)
		os.Exit(code)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vigilante.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable development logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}
