// Command agentroom runs a moderated panel of AI experts that discuss a
// research idea over persistent sessions.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dusk-indust/agentroom/internal/config"
	"github.com/dusk-indust/agentroom/internal/mcptools"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set by goreleaser at build time.
var version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	ConfigPath string
	Dir        string
	Verbose    bool
}

// app carries what PersistentPreRunE resolved into the subcommands.
type app struct {
	flags  globalFlags
	cfg    *config.Config
	logger *zap.Logger
	stdout io.Writer
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	root := newRootCmd(&app{stdout: stdout})
	root.SetArgs(args)
	root.SetOut(stdout)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	mcptools.Version = version

	root := &cobra.Command{
		Use:   "agentroom",
		Short: "Moderated multi-expert panel discussions over persistent sessions",
		Long: `agentroom seats a Moderator and up to four experts (BioExpert, AIExpert,
Reviewer, GrantsWriter) around a research idea. Each round the panel takes
a bounded number of turns in strict rotation; transcripts persist per session.

Set GEMINI_API_KEY to use Gemini, or LLM_BASE_URL / LLM_MODEL / LLM_API_KEY
for any OpenAI-compatible endpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.flags.ConfigPath, "config", "", "path to agentroom.yml (default: search --dir)")
	root.PersistentFlags().StringVar(&a.flags.Dir, "dir", ".", "directory holding agentroom.yml and .env")
	root.PersistentFlags().BoolVarP(&a.flags.Verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(a),
		newMCPCmd(a),
		newRoundCmd(a),
		newExportCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) init() error {
	var (
		cfg *config.Config
		err error
	)
	if a.flags.ConfigPath != "" {
		cfg, err = config.LoadFile(a.flags.ConfigPath)
	} else {
		cfg, err = config.Load(filepath.Clean(a.flags.Dir))
	}
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := buildLogger(cfg.Log, a.flags.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// buildLogger writes to stderr so stdout stays clean for command output and
// the MCP stdio transport.
func buildLogger(lc config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", lc.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(a.stdout, version)
			return err
		},
	}
}
