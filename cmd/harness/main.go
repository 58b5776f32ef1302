// Command harness is the CLI entry point for both halves of the contract
// layer: `plan` runs the planner compile loop, `run` drives one factory
// execution. Flag handling follows the teacher's global-flags-then-dispatch
// shape (cmd/cie/main.go): pflag parses ambient flags, SetInterspersed(false)
// stops at the first non-flag argument so subcommand-specific flags are
// left for the subcommand's own parser, and NO_COLOR / --no-color gate
// fatih/color output the same way.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML file overriding planner/factory defaults")
		metricsAddr = flag.String("metrics-addr", "", "host:port to serve Prometheus metrics on (unset disables the server)")
		noColor    = flag.Bool("no-color", false, "disable colored verdict output")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.CommandLine.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage:")
		fmt.Fprintln(os.Stderr, "  harness plan --spec FILE --template FILE --outdir DIR [--doctrine FILE] [--artifacts-dir DIR] [--repo DIR] [--llm-model MODEL] [--llm-reasoning-effort LEVEL] [--print-summary]")
		fmt.Fprintln(os.Stderr, "  harness run --repo DIR --work-order FILE --out DIR --llm-model MODEL [--llm-temperature FLOAT] [--max-attempts N] [--timeout-seconds N]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "ambient flags (apply to either subcommand, must precede it):")
		fmt.Fprintln(os.Stderr, "  --config FILE          override planner/factory defaults")
		fmt.Fprintln(os.Stderr, "  --metrics-addr HOST:PORT   serve Prometheus metrics")
		fmt.Fprintln(os.Stderr, "  --no-color             disable colored verdict output")
		fmt.Fprintln(os.Stderr, "  --log-level LEVEL      debug|info|warn|error (default info)")
	}
	flag.Parse()

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	initColor(*noColor)
	initLogging(*logLevel)
	if *metricsAddr != "" {
		stopMetrics := serveMetrics(*metricsAddr)
		defer stopMetrics()
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "plan":
		os.Exit(runPlanCmd(cmdArgs, *configPath))
	case "run":
		os.Exit(runRunCmd(cmdArgs, *configPath))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
