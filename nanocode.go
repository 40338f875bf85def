// Package nanocode provides a high-level facade that wires a minimal coding
// agent together: configuration, provider selection, the provider router, the
// built-in tool registry and the agentic loop. Most applications interact with
// this package by:
//  1. Creating an Agent via New() (optionally overriding config, environment or model)
//  2. Sending requests with Run until the user quits
//  3. Clearing history with Reset
//
// The facade delegates the conversation to agent.Loop and every provider
// specific concern to router.Router.
package nanocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hupe1980/nanocode/agent"
	"github.com/hupe1980/nanocode/config"
	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/internal/sysinfo"
	"github.com/hupe1980/nanocode/internal/util"
	"github.com/hupe1980/nanocode/logging"
	"github.com/hupe1980/nanocode/model"
	"github.com/hupe1980/nanocode/router"
	"github.com/hupe1980/nanocode/tool"
	"github.com/hupe1980/nanocode/tool/builtin"
)

// Options configures the Agent instance.
type Options struct {
	// Config holds the effective settings (defaults to config.DefaultConfig()).
	Config config.Config

	// Lookup reads credentials and MODEL (defaults to os.LookupEnv).
	Lookup model.LookupFunc

	// Model replaces provider selection entirely. Used by tests and embedders.
	Model model.Model

	// HTTPClient overrides the provider SDK transport.
	HTTPClient *http.Client

	// BashOutput receives live shell output from the bash tool. May be nil.
	BashOutput io.Writer

	// Hooks observe loop progress.
	Hooks agent.Hooks

	// SystemInfo describes the host (gathered when zero).
	SystemInfo sysinfo.Info

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Agent is the high-level facade aggregating the router, tools and loop.
type Agent struct {
	cfg     config.Config
	router  *router.Router
	tools   *tool.Registry
	loop    *agent.Loop
	sysInfo sysinfo.Info
	prompt  string
}

type promptData struct {
	SystemInfo string
}

// New validates the configuration, selects the provider and builds the agent.
// A missing credential fails here with core.ErrNoProviderConfigured, before any
// network call.
func New(ctx context.Context, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Config: config.DefaultConfig(),
		Lookup: os.LookupEnv,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if opts.SystemInfo.OS == "" {
		opts.SystemInfo = gatherSystemInfo(cfg.WorkDir)
	}

	rt, err := newRouter(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	registry, err := tool.NewRegistry(builtin.All(func(o *builtin.Options) {
		o.WorkDir = cfg.WorkDir
		o.BashOutput = opts.BashOutput
	})...)
	if err != nil {
		return nil, fmt.Errorf("build tools: %w", err)
	}

	prompt, err := util.RenderTemplate(cfg.SystemPrompt, promptData{SystemInfo: opts.SystemInfo.String()})
	if err != nil {
		return nil, fmt.Errorf("system prompt: %w", err)
	}

	loop := agent.NewLoop(rt, registry, func(o *agent.Options) {
		o.Instruction = agent.NewInstructionFromText(prompt)
		o.MaxToolRounds = cfg.MaxToolRounds
		o.ToolParallelism = cfg.ToolParallelism
		o.Hooks = opts.Hooks
		o.Logger = opts.Logger
	})

	profile := rt.Profile()
	opts.Logger.Info("nanocode.started",
		"provider", string(profile.Kind),
		"model", profile.Model,
		"base_url", profile.BaseURL,
		"tools", registry.Len(),
	)

	return &Agent{
		cfg:     cfg,
		router:  rt,
		tools:   registry,
		loop:    loop,
		sysInfo: opts.SystemInfo,
		prompt:  prompt,
	}, nil
}

// gatherSystemInfo reports workDir as the current directory when it is set,
// since the tools resolve relative paths against it.
func gatherSystemInfo(workDir string) sysinfo.Info {
	return sysinfo.Gather(func(o *sysinfo.Options) {
		if workDir == "" {
			return
		}

		o.Getwd = func() (string, error) { return filepath.Abs(workDir) }
	})
}

func newRouter(ctx context.Context, cfg config.Config, opts Options) (*router.Router, error) {
	routerOpts := func(o *router.Options) {
		o.MaxTokens = cfg.MaxTokens
		o.HTTPClient = opts.HTTPClient
		o.Logger = opts.Logger
	}

	if opts.Model != nil {
		return router.NewWithModel(opts.Model, routerOpts), nil
	}

	profile, err := model.Select(opts.Lookup, cfg.Override())
	if err != nil {
		return nil, err
	}

	return router.New(ctx, profile, routerOpts)
}

// Run sends one user request through the agentic loop and returns the final
// assistant turn.
func (a *Agent) Run(ctx context.Context, input string) (core.Content, error) {
	return a.loop.Run(ctx, input)
}

// Reset clears the conversation.
func (a *Agent) Reset() { a.loop.Reset() }

// Conversation returns a copy of the history.
func (a *Agent) Conversation() []core.Content { return a.loop.Conversation() }

// SessionID identifies the current conversation.
func (a *Agent) SessionID() string { return a.loop.SessionID() }

// Profile returns the selected provider profile.
func (a *Agent) Profile() model.Profile { return a.router.Profile() }

// ModelInfo describes the active model.
func (a *Agent) ModelInfo() model.Info { return a.router.Info() }

// Tools returns the names of the registered tools in presentation order.
func (a *Agent) Tools() []string { return a.tools.Names() }

// Descriptors returns the registered tool descriptors in presentation order.
func (a *Agent) Descriptors() []tool.Descriptor { return a.tools.Descriptors() }

// SystemInfo returns the host description used in the system prompt.
func (a *Agent) SystemInfo() sysinfo.Info { return a.sysInfo }

// SystemPrompt returns the rendered system prompt.
func (a *Agent) SystemPrompt() string { return a.prompt }

// Config returns the effective configuration.
func (a *Agent) Config() config.Config { return a.cfg }
