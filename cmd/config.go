package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/vigilante/internal/collector"
	"github.com/khanhnv2901/vigilante/internal/report"
	consts "github.com/khanhnv2901/vigilante/internal/shared/constants"
)

const (
	defaultConcurrency     = 4
	defaultRuleConcurrency = 8
	defaultServeAddr       = "127.0.0.1:8080"
	defaultRateLimit       = 10
	defaultRateBurst       = 20
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Scan  ScanRuntimeConfig
	Serve ServeRuntimeConfig
}

// ScanRuntimeConfig consolidates flag-driven settings for scan and rules.
type ScanRuntimeConfig struct {
	Mode               string
	Format             string
	Output             string
	Extended           bool
	Disabled           []string
	TimeoutSecs        int
	HeadersTimeoutSecs int
	Concurrency        int
	RuleConcurrency    int
	Rate               int // Scans started per second across a batch (0 = unlimited)
	FailOn             string
	ChromePath         string
	HTMLPath           string
	HeadersPath        string
	Progress           bool
}

// ServeRuntimeConfig captures API server options.
type ServeRuntimeConfig struct {
	Addr            string
	AuthToken       string
	CORSOrigins     []string
	RateLimit       int
	RateBurst       int
	ShutdownTimeout time.Duration
	JobRetention    time.Duration
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Scan: ScanRuntimeConfig{
			Mode:               string(collector.ModeHTTP),
			Format:             string(report.FormatText),
			TimeoutSecs:        int(consts.DefaultScanTimeout / time.Second),
			HeadersTimeoutSecs: int(consts.DefaultHeadersTimeout / time.Second),
			Concurrency:        defaultConcurrency,
			RuleConcurrency:    defaultRuleConcurrency,
		},
		Serve: ServeRuntimeConfig{
			Addr:            defaultServeAddr,
			RateLimit:       defaultRateLimit,
			RateBurst:       defaultRateBurst,
			ShutdownTimeout: 30 * time.Second,
			JobRetention:    consts.JobRetention,
		},
	}
}

// applyConfigDefaults merges config file and environment values into the runtime
// config when the user did not explicitly set the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	scanFlags := scanCmd.Flags()
	sc := &cliConfig.Scan

	applyStringDefault(scanFlags, "mode", "scan.mode", func(v string) { sc.Mode = v })
	applyStringDefault(scanFlags, "format", "scan.format", func(v string) { sc.Format = v })
	applyStringDefault(scanFlags, "fail-on", "scan.fail_on", func(v string) { sc.FailOn = v })
	applyIntDefault(scanFlags, "timeout", "scan.timeout_secs", func(v int) { sc.TimeoutSecs = v })
	applyIntDefault(scanFlags, "headers-timeout", "scan.headers_timeout_secs", func(v int) { sc.HeadersTimeoutSecs = v })
	applyIntDefault(scanFlags, "concurrency", "scan.concurrency", func(v int) { sc.Concurrency = v })
	applyIntDefault(scanFlags, "rule-concurrency", "scan.rule_concurrency", func(v int) { sc.RuleConcurrency = v })
	applyIntDefault(scanFlags, "rate", "scan.rate", func(v int) { sc.Rate = v })

	// scan, rules and serve bind the same rule selection and browser flags.
	applyStringDefault(cmd.Flags(), "chrome-path", "scan.chrome_path", func(v string) { sc.ChromePath = v })
	applyBoolDefault(cmd.Flags(), "extended", "rules.extended", func(v bool) { sc.Extended = v })
	applyStringSliceDefault(cmd.Flags(), "disable", "rules.disabled", func(v []string) { sc.Disabled = v })

	serveFlags := serveCmd.Flags()
	sv := &cliConfig.Serve
	applyStringDefault(serveFlags, "addr", "serve.addr", func(v string) { sv.Addr = v })
	applyStringDefault(serveFlags, "auth-token", "serve.auth_token", func(v string) { sv.AuthToken = v })
	applyStringSliceDefault(serveFlags, "cors-origins", "serve.cors_origins", func(v []string) { sv.CORSOrigins = v })
	applyIntDefault(serveFlags, "rate-limit", "serve.rate_limit", func(v int) { sv.RateLimit = v })
	applyIntDefault(serveFlags, "rate-burst", "serve.rate_burst", func(v int) { sv.RateBurst = v })
	if flag := serveFlags.Lookup("job-retention"); (flag == nil || !flag.Changed) && viper.IsSet("serve.job_retention") {
		sv.JobRetention = viper.GetDuration("serve.job_retention")
	}
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	flag := flags.Lookup(name)
	return flag != nil && flag.Changed
}

func applyStringDefault(flags *pflag.FlagSet, name, key string, setter func(string)) {
	if flagChanged(flags, name) || !viper.IsSet(key) {
		return
	}
	if v := viper.GetString(key); v != "" {
		setter(v)
	}
}

func applyIntDefault(flags *pflag.FlagSet, name, key string, setter func(int)) {
	if flagChanged(flags, name) || !viper.IsSet(key) {
		return
	}
	setter(viper.GetInt(key))
}

func applyBoolDefault(flags *pflag.FlagSet, name, key string, setter func(bool)) {
	if flagChanged(flags, name) || !viper.IsSet(key) {
		return
	}
	setter(viper.GetBool(key))
}

func applyStringSliceDefault(flags *pflag.FlagSet, name, key string, setter func([]string)) {
	if flagChanged(flags, name) || !viper.IsSet(key) {
		return
	}
	setter(viper.GetStringSlice(key))
}
