package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xiaoquanidea/fast-clean-x/internal/app"
	"github.com/xiaoquanidea/fast-clean-x/internal/config"
	"github.com/xiaoquanidea/fast-clean-x/internal/services"
)

var version = "0.1.0"

// environment holds what every subcommand needs once flags are parsed.
type environment struct {
	configPath string
	cachePath  string
	verbose    bool
	viper      *viper.Viper
	logger     *zap.Logger
	manager    *config.Manager
	app        *app.App
}

func NewRootCmd() *cobra.Command {
	env := &environment{viper: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "fastclean",
		Short: "Fast Clean X - find and remove build artifacts",
		Long: `Scans project directories for regenerable build artifacts such as
node_modules, target and __pycache__, reports their size and cleans them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env.logger != nil {
				_ = env.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&env.configPath, "config", "", "Config file (default is $XDG_CONFIG_HOME/fast-clean-x/config.yaml)")
	flags.StringVar(&env.cachePath, "cache", "", "Last scan cache file (default is in the user cache dir)")
	flags.BoolVarP(&env.verbose, "verbose", "v", false, "Enable verbose logging")
	config.RegisterFlags(flags)
	_ = flags.MarkHidden("cache")

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(scanCmd(env))
	rootCmd.AddCommand(cleanCmd(env))
	rootCmd.AddCommand(rulesCmd(env))
	rootCmd.AddCommand(pathsCmd(env))
	rootCmd.AddCommand(ignoreCmd(env))
	rootCmd.AddCommand(configCmd(env))
	rootCmd.AddCommand(uiCmd(env))
	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (env *environment) init(cmd *cobra.Command) error {
	if err := config.BindFlags(env.viper, cmd.Flags()); err != nil {
		return err
	}

	path := env.configPath
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return fmt.Errorf("cannot locate config dir: %w", err)
		}
		path = defaultPath
	}

	env.manager = config.NewManager(env.viper, path, zap.NewNop())
	if err := env.manager.Load(); err != nil {
		return err
	}

	logger, err := newLogger(env.verbose, env.manager.Settings().LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	env.logger = logger
	env.manager.SetLogger(logger)

	store := services.DefaultResultStore()
	if env.cachePath != "" {
		store = services.NewResultStore(env.cachePath)
	}
	env.app = app.New(env.manager, store, logger)
	return nil
}

// newLogger is verbose development output, or JSON on stderr at level.
func newLogger(verbose bool, level string) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	atomicLevel := zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		atomicLevel = zap.NewAtomicLevelAt(parsed)
	}
	cfg := zap.Config{
		Level:            atomicLevel,
		Encoding:         "json",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}
	return cfg.Build()
}
