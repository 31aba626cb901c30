// Package cmd provides the CLI commands for verhdr.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/output"
	"github.com/MyCarrier-DevOps/verhdr/internal/domain"
	"github.com/MyCarrier-DevOps/verhdr/internal/infrastructure/config"
)

// Exit codes returned by Execute.
const (
	ExitOK            = 0
	ExitNotRepository = 1
	ExitFailure       = 2
)

// Logger defines the logging interface used by the commands.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the commands.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance. It is called after LOG_LEVEL
	// and LOG_APP_NAME have been set from the configuration.
	LoggerFactory func() Logger

	// ConfigLoader loads application configuration.
	ConfigLoader func(opts config.Options) (*config.Config, error)

	// InspectorFactory opens the repository with the configured backend.
	InspectorFactory func(cfg *config.Config, log Logger) (domain.Inspector, error)

	// ResolverFactory creates a Resolver over the given inspector.
	ResolverFactory func(inspector domain.Inspector, log Logger) domain.Resolver

	// HeaderRendererFactory creates the C header renderer.
	HeaderRendererFactory func() domain.Renderer

	// ReportRendererFactory creates the renderer used by `describe`.
	ReportRendererFactory func() domain.Renderer

	// OutputWriterFactory creates an OutputWriter whose "-" path is stdout.
	OutputWriterFactory func(stdout io.Writer) domain.OutputWriter

	// FormatterFactory creates the formatter run over written headers.
	FormatterFactory func(cfg *config.Config, log Logger) domain.Formatter

	// Stdout is the writer for standard output.
	Stdout io.Writer

	// Stderr is the writer for standard error (for warnings/errors).
	Stderr io.Writer
}

// options holds the command-line flags.
type options struct {
	gitPath       string
	repository    string
	output        string
	backend       string
	configFile    string
	noClangFormat bool
	verbose       bool
}

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for verhdr.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "verhdr",
		Short: "Generate a C version header from the state of a Git repository",
		Long: `verhdr inspects a Git working tree and writes a C header describing it:
branch, commit, dirty files, nearest tag and a derived version string.

The version is the nearest tag (v1.2.3 becomes 1.2.3), or <commit>-<date>
when the repository has no tags. Commits after the tag append
-next-<commit>-<date>, and uncommitted changes append -dirty.

Examples:
  # Write version.h for the current directory
  verhdr

  # Write a header for another checkout, without clang-format
  verhdr -c ../firmware -o include/version.h -F

  # Inspect the repository in-process instead of running git
  verhdr --backend gogit

  # Print the resolved version information as YAML
  verhdr describe`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts, deps)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.gitPath, "git", "g", config.DefaultGitPath, "Path to the git executable")
	pf.StringVarP(&opts.repository, "repository", "c", config.DefaultRepository, "Path inside the repository to inspect")
	pf.StringVar(&opts.backend, "backend", config.DefaultBackend, "Inspector backend: exec or gogit")
	pf.StringVar(&opts.configFile, "config", "", "Config file (default: <repository>/"+config.DefaultConfigFile+")")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose/debug logging")

	rootCmd.Flags().StringVarP(&opts.output, "output", "o", config.DefaultOutput, "Header to write, or - for stdout")
	rootCmd.Flags().BoolVarP(&opts.noClangFormat, "no-clang-format", "F", false, "Do not run clang-format on the header")

	rootCmd.AddCommand(newDescribeCmd(opts, deps))

	return rootCmd
}

func newDescribeCmd(opts *options, deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the resolved version information as YAML",
		Long: `describe resolves the repository exactly like the header generator and
prints the result as a YAML document on stdout. No file is written.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDescribe(cmd, opts, deps)
		},
	}
}

// session is the state shared by both commands once the repository has
// been resolved.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	log    Logger
	desc   *domain.VersionDescriptor
	writer domain.OutputWriter
}

// runGenerate writes the C header and optionally formats it.
func runGenerate(cmd *cobra.Command, opts *options, deps *Dependencies) error {
	return withDescriptor(cmd, opts, deps, func(s *session) error {
		content, err := deps.HeaderRendererFactory().Render(s.desc)
		if err != nil {
			s.log.Error(s.ctx, "failed to render header", err, nil)
			return fmt.Errorf("render error: %w", err)
		}

		if err := s.writer.Write(s.cfg.Output, content); err != nil {
			s.log.Error(s.ctx, "failed to write header", err, map[string]interface{}{
				"output": s.cfg.Output,
			})
			return fmt.Errorf("output error: %w", err)
		}

		formatted := false
		if s.cfg.Formatter.Enabled && s.cfg.Output != output.StdoutPath {
			formatted = deps.FormatterFactory(s.cfg, s.log).Format(s.ctx, s.cfg.Output)
		}

		s.log.Info(s.ctx, "header written", map[string]interface{}{
			"output":    s.cfg.Output,
			"version":   s.desc.Version,
			"formatted": formatted,
		})
		return nil
	})
}

// runDescribe prints the descriptor report on stdout.
func runDescribe(cmd *cobra.Command, opts *options, deps *Dependencies) error {
	return withDescriptor(cmd, opts, deps, func(s *session) error {
		content, err := deps.ReportRendererFactory().Render(s.desc)
		if err != nil {
			s.log.Error(s.ctx, "failed to render report", err, nil)
			return fmt.Errorf("render error: %w", err)
		}

		if err := s.writer.Write(output.StdoutPath, content); err != nil {
			s.log.Error(s.ctx, "failed to write report", err, nil)
			return fmt.Errorf("output error: %w", err)
		}
		return nil
	})
}

// withDescriptor loads configuration, builds the logger, resolves the
// repository and hands the result to fn. Nothing is written unless
// resolution succeeds.
func withDescriptor(cmd *cobra.Command, opts *options, deps *Dependencies, fn func(*session) error) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	cfg, err := deps.ConfigLoader(config.Options{
		File:      opts.configFile,
		SearchDir: opts.repository,
		Overrides: flagOverrides(cmd, opts),
	})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	// Best-effort: the logger reads its settings from the environment.
	if err := os.Setenv(config.EnvLogLevel, cfg.LogLevel); err != nil {
		writeWarningf(stderr, "warning: could not set log level: %v\n", err)
	}
	if err := os.Setenv(config.EnvLogAppName, cfg.LogAppName); err != nil {
		writeWarningf(stderr, "warning: could not set log app name: %v\n", err)
	}

	log := deps.LoggerFactory()

	log.Info(ctx, "starting verhdr", map[string]interface{}{
		"command":    cmd.Name(),
		"repository": cfg.Repository,
		"backend":    cfg.Git.Backend,
		"verbose":    opts.verbose,
	})

	inspector, err := deps.InspectorFactory(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to open git repository", err, map[string]interface{}{
			"path": cfg.Repository,
		})
		return err
	}
	defer func() {
		if closeErr := inspector.Close(); closeErr != nil {
			log.Warn(ctx, "failed to close git repository", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	desc, err := deps.ResolverFactory(inspector, log).Resolve(ctx)
	if err != nil {
		log.Error(ctx, "failed to resolve version", err, map[string]interface{}{
			"path": cfg.Repository,
		})
		if errors.Is(err, domain.ErrNotRepository) {
			return fmt.Errorf("%w: %s", domain.ErrNotRepository, cfg.Repository)
		}
		return err
	}

	return fn(&session{
		ctx:    ctx,
		cfg:    cfg,
		log:    log,
		desc:   desc,
		writer: deps.OutputWriterFactory(stdout),
	})
}

// flagOverrides returns the config keys of the flags set on the command line.
// Flags left at their defaults do not mask file or environment settings.
func flagOverrides(cmd *cobra.Command, opts *options) map[string]any {
	overrides := make(map[string]any)
	flags := cmd.Flags()

	if flags.Changed("git") {
		overrides["git.path"] = opts.gitPath
	}
	if flags.Changed("repository") {
		overrides["repository"] = opts.repository
	}
	if flags.Changed("backend") {
		overrides["git.backend"] = opts.backend
	}
	if flags.Changed("output") {
		overrides["output"] = opts.output
	}
	if flags.Changed("no-clang-format") {
		overrides["formatter.enabled"] = !opts.noClangFormat
	}
	return overrides
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrNotRepository):
		return ExitNotRepository
	default:
		return ExitFailure
	}
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	if err != nil {
		stderr := io.Writer(os.Stderr)
		if defaultDeps != nil && defaultDeps.Stderr != nil {
			stderr = defaultDeps.Stderr
		}
		writeWarningf(stderr, "error: %v\n", err)
	}
	return ExitCode(err)
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		// Intentionally ignored: no recovery action for failed stderr writes
		return
	}
}
