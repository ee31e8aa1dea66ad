package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/evalctl/internal/config"
	"github.com/itsmostafa/evalctl/internal/version"
)

var (
	cfg    config.Config
	logger *slog.Logger

	langFlag      string
	configDirFlag string
	libFlag       []string
	timeoutFlag   string
	logLevelFlag  string
	optFlag       string
	noColorFlag   bool
)

// errReported is returned once an error has already been shown to the
// user. Execute exits non-zero without printing it again.
var errReported = errors.New("error already reported")

var rootCmd = &cobra.Command{
	Use:   "evalctl",
	Short: "Interactive evaluator for Tengo, JavaScript and Lua",
	Long: `evalctl evaluates Tengo, JavaScript or Lua code in a persistent session.

Lines starting with ':' are meta-commands (:help lists them). Everything
else is code; all code in one submission is evaluated as a single unit.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runRepl,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("evalctl %s\n", version.String()))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&langFlag, "lang", "", "Engine language (tengo, js, lua) [EVALCTL_LANG]")
	flags.StringVar(&configDirFlag, "config-dir", "", "Directory holding init.evalctl and the prelude [EVALCTL_CONFIG_DIR]")
	flags.StringSliceVar(&libFlag, "lib", nil, "Module directories searched by :add-dependency [EVALCTL_LIB_PATH]")
	flags.StringVar(&timeoutFlag, "timeout", "", "Maximum run time of one evaluation [EVALCTL_TIMEOUT]")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error) [EVALCTL_LOG_LEVEL]")
	flags.StringVar(&optFlag, "opt", "", "Initial optimization level (0-3, s, z) [EVALCTL_OPT_LEVEL]")
	flags.BoolVar(&noColorFlag, "no-color", false, "Disable styled output [EVALCTL_NO_COLOR]")

	addReplFlags(rootCmd)
}

// loadConfig reads the environment, then applies flags the user set.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("lang") {
		loaded.Lang = config.Language(langFlag)
	}
	if flags.Changed("config-dir") {
		loaded.ConfigDir = configDirFlag
	}
	if flags.Changed("lib") {
		loaded.LibPath = libFlag
	}
	if flags.Changed("timeout") {
		loaded.Timeout, err = parseDuration(timeoutFlag)
		if err != nil {
			return err
		}
	}
	if flags.Changed("log-level") {
		loaded.LogLevel = logLevelFlag
	}
	if flags.Changed("opt") {
		loaded.OptLevel = optFlag
	}
	if flags.Changed("no-color") {
		loaded.NoColor = noColorFlag
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	level, err := config.ParseLevel(loaded.LogLevel)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	cfg = loaded
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
