// Command nanocode is a minimal coding agent REPL.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/nanocode"
	"github.com/hupe1980/nanocode/config"
	"github.com/hupe1980/nanocode/logging"
)

var version = "dev"

var (
	configPath  = flag.String("config", "", "Path to a YAML, TOML or JSON config file (overrides NANOCODE_CONFIG)")
	provider    = flag.String("provider", "", "Provider: gemini, openrouter, anthropic or openai (default: first with a credential)")
	modelName   = flag.String("model", "", "Model name (overrides MODEL)")
	showVersion = flag.Bool("version", false, "Show version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("nanocode %s\n", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s⏺ Error: %v%s\n", red, err, reset)
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer) error {
	lookup := func(key string) (string, bool) {
		if key == config.EnvConfigFile && *configPath != "" {
			return *configPath, true
		}

		return os.LookupEnv(key)
	}

	cfg, err := config.Load(lookup)
	if err != nil {
		return err
	}

	if *provider != "" {
		cfg.Provider = *provider
	}

	if *modelName != "" {
		cfg.Model = *modelName
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	p := newPrinter(out)

	agent, err := nanocode.New(ctx, func(o *nanocode.Options) {
		o.Config = cfg
		o.Lookup = lookup
		o.BashOutput = p.bashWriter()
		o.Hooks = p.hooks()
		o.Logger = logger
	})
	if err != nil {
		return err
	}

	p.setDescriptors(agent.Descriptors())

	return newREPL(in, p, agent).Run(ctx)
}

func newLogger(cfg config.Config) (logging.Logger, func(), error) {
	if cfg.Log.File == "" {
		return logging.New(cfg.Logging()), func() {}, nil
	}

	logger, closer, err := logging.NewFile(cfg.Log.File, cfg.Logging())
	if err != nil {
		return nil, nil, err
	}

	return logger, func() { _ = closer.Close() }, nil
}
