package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"e2egateway/internal/app"
	"e2egateway/internal/util/log"
)

var (
	envFile        string
	gatewayID      string
	secret         string
	privateKey     string
	privateKeyFile string
	passphrase     string
	baseURL        string
	logLevel       string
	devLog         bool
	pins           []string

	conf app.Config // environment plus flags, read before any command runs
)

// Execute runs the CLI with os.Args.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gateway",
		Short:         "Send end-to-end encrypted messages through the message gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			l, err := log.New(levelFor(cfg), devLog)
			if err != nil {
				return err
			}
			log.Set(l)
			conf = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&envFile, "env-file", "", "env file to read GATEWAY_* variables from (default .env if present)")
	pf.StringVar(&gatewayID, "identity", "", "gateway identity, e.g. *MYGATE1 (GATEWAY_IDENTITY)")
	pf.StringVar(&secret, "secret", "", "API secret (GATEWAY_SECRET)")
	pf.StringVar(&privateKey, "private-key", "", "private key, private:<hex> (GATEWAY_PRIVATE_KEY)")
	pf.StringVar(&privateKeyFile, "private-key-file", "", "private key file (GATEWAY_PRIVATE_KEY_FILE)")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase of a sealed private key file")
	pf.StringVar(&baseURL, "base-url", "", "gateway base URL (GATEWAY_BASE_URL)")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (GATEWAY_LOG_LEVEL, default warn)")
	pf.StringArrayVar(&pins, "pin", nil, "trust a fixed key, ID=public:<hex> (repeatable, GATEWAY_PINNED_KEYS)")
	pf.BoolVar(&devLog, "dev", false, "human readable log output")

	root.AddCommand(keygenCmd(), pubkeyCmd(), creditsCmd(), capabilitiesCmd(), sendCmd())
	return root
}

// loadConfig merges the environment with flags set on the command line.
func loadConfig() (app.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := app.ReadEnv(files...)
	if err != nil {
		return app.Config{}, err
	}
	overrides := []struct {
		flag string
		dst  *string
	}{
		{gatewayID, &cfg.Identity},
		{secret, &cfg.Secret},
		{privateKey, &cfg.PrivateKey},
		{privateKeyFile, &cfg.PrivateKeyFile},
		{passphrase, &cfg.Passphrase},
		{baseURL, &cfg.BaseURL},
		{logLevel, &cfg.LogLevel},
	}
	for _, o := range overrides {
		if o.flag != "" {
			*o.dst = o.flag
		}
	}
	// a key file named on the command line beats a literal key from the environment
	if privateKeyFile != "" && privateKey == "" {
		cfg.PrivateKey = ""
	}
	cfg.PinnedKeys = append(cfg.PinnedKeys, pins...)
	return cfg, nil
}

// levelFor picks the log level: --log-level, then GATEWAY_LOG_LEVEL, then warn.
func levelFor(cfg app.Config) string {
	if logLevel != "" {
		return logLevel
	}
	if _, ok := os.LookupEnv(app.EnvPrefix + "_LOG_LEVEL"); ok && cfg.LogLevel != "" {
		return cfg.LogLevel
	}
	return "warn"
}

// withConnection opens a connection for the duration of fn.
func withConnection(cmd *cobra.Command, fn func(ctx context.Context, c *app.Connection) error) error {
	cfg := conf
	cfg.Logger = log.L()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return app.With(ctx, cfg, func(c *app.Connection) error {
		log.Debug("connected", zap.String("identity", string(c.Identity())))
		return fn(ctx, c)
	})
}
