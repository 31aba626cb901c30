// Package main is the entry point for the verhdr CLI application.
// verhdr inspects a Git working tree and writes a C header describing its
// branch, commit, dirty files and derived version string.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/verhdr/cmd"
	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/exec"
	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/formatter"
	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/git"
	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/header"
	logadapter "github.com/MyCarrier-DevOps/verhdr/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/output"
	"github.com/MyCarrier-DevOps/verhdr/internal/adapters/workdir"
	"github.com/MyCarrier-DevOps/verhdr/internal/domain"
	"github.com/MyCarrier-DevOps/verhdr/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/verhdr/internal/usecases"
)

func main() {
	cmd.SetDefaultDependencies(newDependencies(exec.New(), workdir.NewStack()))
	os.Exit(cmd.Execute())
}

// newDependencies wires the production implementations.
func newDependencies(executor exec.Executor, dirs *workdir.Stack) *cmd.Dependencies {
	return &cmd.Dependencies{
		// The logger is built after the commands export LOG_LEVEL and
		// LOG_APP_NAME, so it honors the loaded configuration.
		LoggerFactory: func() cmd.Logger {
			return logadapter.NewZapAdapter(logger.NewZapLoggerFromConfig())
		},

		ConfigLoader: config.Load,

		InspectorFactory: func(cfg *config.Config, log cmd.Logger) (domain.Inspector, error) {
			return newInspector(cfg, executor, named(log, "git"))
		},

		ResolverFactory: func(inspector domain.Inspector, log cmd.Logger) domain.Resolver {
			return usecases.NewVersionResolver(inspector, named(log, "resolver"))
		},

		HeaderRendererFactory: func() domain.Renderer {
			return header.NewEmitter()
		},

		ReportRendererFactory: func() domain.Renderer {
			return output.NewYAMLRenderer()
		},

		OutputWriterFactory: func(stdout io.Writer) domain.OutputWriter {
			return output.NewWriterWithOutput(stdout)
		},

		FormatterFactory: func(cfg *config.Config, log cmd.Logger) domain.Formatter {
			return formatter.NewClangFormat(executor, cfg.Formatter.Path, cfg.Formatter.Args, dirs, named(log, "formatter"))
		},

		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// newInspector opens the repository with the configured backend.
func newInspector(cfg *config.Config, executor exec.Executor, log cmd.Logger) (domain.Inspector, error) {
	switch cfg.Git.Backend {
	case config.BackendExec:
		return git.NewCLIRepository(executor, cfg.Git.Path, cfg.Repository, log), nil
	case config.BackendGoGit:
		repo, err := git.NewGoGitRepository(cfg.Repository, log)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, newBackendError(cfg.Git.Backend)
	}
}

// named scopes log to a component when it is backed by the zap adapter.
func named(log cmd.Logger, component string) cmd.Logger {
	if zap, ok := log.(*logadapter.ZapAdapter); ok {
		return zap.Named(component)
	}
	return log
}

func newBackendError(backend string) error {
	return &backendError{backend: backend}
}

// backendError is returned when the configured inspector backend is unknown.
type backendError struct {
	backend string
}

func (e *backendError) Error() string {
	return fmt.Sprintf("unknown inspector backend %q: expected %s or %s",
		e.backend, config.BackendExec, config.BackendGoGit)
}
