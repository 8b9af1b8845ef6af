package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/gridflow/internal/app"
	"github.com/vk/gridflow/internal/scheduler"
)

// Subcommands.
const (
	CommandRun   = "run"
	CommandList  = "ls"
	CommandWatch = "watch"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Command is a parsed invocation.
type Command struct {
	Name   string
	Config *app.Config
}

const usage = `
gridflow - build, select and run a project's transformation graph.

Usage:
  gridflow run   [options] [PROJECT_PATH]
  gridflow ls    [options] [PROJECT_PATH]
  gridflow watch [options] URL

Commands:
  run    Execute the selected nodes in dependency order.
  ls     Print the selected node ids in dependency order.
  watch  Follow the progress of a run served on --healthcheck-port.

PROJECT_PATH defaults to the current directory.
`

// Parse processes command-line arguments. It returns the parsed command,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Command, bool, error) {
	slog.Debug("CLI parser started.")
	if len(args) == 0 {
		fmt.Fprint(output, usage)
		return nil, true, nil
	}

	name, rest := args[0], args[1:]
	switch name {
	case "-h", "-help", "--help", "help":
		fmt.Fprint(output, usage)
		return nil, true, nil
	case CommandRun, CommandList, CommandWatch:
	default:
		return nil, false, usageError("unknown command %q; expected run, ls or watch", name)
	}

	flagSet := flag.NewFlagSet("gridflow "+name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usage)
		fmt.Fprintf(output, "\nOptions for %s:\n", name)
		flagSet.PrintDefaults()
	}

	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	var (
		selectFlag, excludeFlag, selectorFlag, selectorsFileFlag *string
		packagesFlag                                             *string
		failOnEmptyFlag                                          *bool
	)
	if name != CommandWatch {
		selectFlag = flagSet.String("select", "", "Selector expression choosing the nodes to act on.")
		excludeFlag = flagSet.String("exclude", "", "Selector expression removing nodes from the selection.")
		selectorFlag = flagSet.String("selector", "", "Name of a selector from the selectors file.")
		selectorsFileFlag = flagSet.String("selectors-file", "", "Path to the selectors file. Defaults to PROJECT_PATH/selectors.yml.")
		packagesFlag = flagSet.String("packages-path", "", "Directory installed packages are copied to. Defaults to PROJECT_PATH/.gridflow/packages.")
		failOnEmptyFlag = flagSet.Bool("fail-on-empty", false, "Exit with an error when the selection matches no nodes.")
	}

	var (
		workersFlag, retriesFlag, healthPortFlag *int
		nodeTimeoutFlag                          *time.Duration
		adapterFlag, dsnFlag, reportFlag         *string
		statsdFlag                               *string
	)
	if name == CommandRun {
		workersFlag = flagSet.Int("workers", 0, fmt.Sprintf("Number of concurrent workers. 0 uses the project setting or %d.", scheduler.DefaultConcurrency))
		retriesFlag = flagSet.Int("retries", -1, "Extra attempts for a failing node. Negative uses the project setting.")
		nodeTimeoutFlag = flagSet.Duration("node-timeout", 0, "Time limit for a single attempt. 0 is unlimited.")
		adapterFlag = flagSet.String("adapter", app.AdapterLocal, "Executor adapter. Options: 'local' or 'postgres'.")
		dsnFlag = flagSet.String("dsn", "", "Connection string for the postgres adapter.")
		reportFlag = flagSet.String("report", "", "Write a JSON run report to this path.")
		healthPortFlag = flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and progress server. 0 is disabled.")
		statsdFlag = flagSet.String("statsd", "", "Address of a dogstatsd agent, e.g. localhost:8125.")
	}

	if err := flagSet.Parse(rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.", "command", name)

	if flagSet.NArg() > 1 {
		return nil, false, usageError("unexpected arguments: %s", strings.Join(flagSet.Args()[1:], " "))
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	cfg := app.Config{
		LogFormat: logFormat,
		LogLevel:  logLevel,
		Retries:   -1,
	}

	if name == CommandWatch {
		if flagSet.NArg() == 0 {
			return nil, false, usageError("watch requires a URL")
		}
		cfg.WatchURL = flagSet.Arg(0)
	} else {
		cfg.ProjectPath = "."
		if flagSet.NArg() == 1 {
			cfg.ProjectPath = flagSet.Arg(0)
		}
		cfg.Select = *selectFlag
		cfg.Exclude = *excludeFlag
		cfg.Selector = *selectorFlag
		cfg.SelectorsPath = *selectorsFileFlag
		cfg.PackagesPath = *packagesFlag
		cfg.FailOnEmpty = *failOnEmptyFlag
	}

	if name == CommandRun {
		cfg.Workers = *workersFlag
		cfg.Retries = *retriesFlag
		cfg.NodeTimeout = *nodeTimeoutFlag
		cfg.Adapter = strings.ToLower(*adapterFlag)
		cfg.DSN = *dsnFlag
		cfg.ReportPath = *reportFlag
		cfg.HealthcheckPort = *healthPortFlag
		cfg.StatsdAddr = *statsdFlag
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "command", name)
	return &Command{Name: name, Config: config}, false, nil
}
