package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/logging"
	"github.com/hupe1980/nanocode/tool"
)

// DefaultMaxToolRounds caps tool rounds per user request.
const DefaultMaxToolRounds = 25

// DefaultToolParallelism bounds concurrent tool calls within one assistant turn.
const DefaultToolParallelism = 4

// Sender performs one model round trip. *router.Router implements it.
type Sender interface {
	SendTurn(ctx context.Context, turns []core.Content, tools []tool.Descriptor, system string) (core.Content, error)
}

// Toolbox is the tool set offered to the model. *tool.Registry implements it.
type Toolbox interface {
	tool.Executor
	Descriptors() []tool.Descriptor
}

// Hooks observe loop progress. Every hook runs on the goroutine calling Run
// (OnStateChange also on the one calling Reset).
type Hooks struct {
	OnStateChange   func(state State)
	OnAssistantTurn func(turn core.Content)
	OnToolCall      func(call core.FunctionCall)
	OnToolResult    func(call core.FunctionCall, result core.FunctionResponse)
}

// Options configures a Loop.
type Options struct {
	Instruction     Instruction
	MaxToolRounds   int
	ToolParallelism int
	Hooks           Hooks
	Logger          logging.Logger
}

// Loop drives the agentic conversation: it sends the conversation, executes
// requested tools, appends their results and repeats until the model answers
// without tool calls.
//
// Loop owns its conversation. Run calls are serialized.
type Loop struct {
	sender      Sender
	tools       Toolbox
	executor    FunctionExecutor
	instruction Instruction
	maxRounds   int
	hooks       Hooks
	logger      logging.Logger

	mu    sync.Mutex
	conv  *core.Conversation
	state atomic.Int32
}

// NewLoop creates a loop sending turns through sender and executing tools from
// tools (which may be nil).
func NewLoop(sender Sender, tools Toolbox, optFns ...func(o *Options)) *Loop {
	opts := Options{
		MaxToolRounds:   DefaultMaxToolRounds,
		ToolParallelism: DefaultToolParallelism,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = DefaultMaxToolRounds
	}

	logger := logging.With(opts.Logger, "component", "agent")

	var exec tool.Executor
	if tools != nil {
		exec = tools
	}

	return &Loop{
		sender: sender,
		tools:  tools,
		executor: NewParallelFunctionExecutor(exec, FunctionExecutorConfig{
			MaxParallel: opts.ToolParallelism,
			Logger:      logger,
		}),
		instruction: opts.Instruction,
		maxRounds:   opts.MaxToolRounds,
		hooks:       opts.Hooks,
		logger:      logger,
		conv:        core.NewConversation(),
	}
}

// State returns the current loop state. A completed request leaves the loop in
// StateDone until the next Run; an aborted one in StateAwaitingUserInput.
func (l *Loop) State() State { return State(l.state.Load()) }

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))

	if l.hooks.OnStateChange != nil {
		l.hooks.OnStateChange(s)
	}
}

// Conversation returns a copy of the history.
func (l *Loop) Conversation() []core.Content {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.conv.Turns()
}

// SessionID identifies the current conversation.
func (l *Loop) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.conv.ID()
}

// Reset clears the conversation and starts a new session.
func (l *Loop) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.conv.Reset()
	l.setState(StateAwaitingUserInput)
}

// Run processes one user request and returns the final assistant turn.
//
// Provider, conversion and round-cap failures abort the request but keep every
// completed turn: tools may already have changed files, so the model must still
// see what it did. Calls left unanswered by the round cap get failed results.
// The next Run's input joins the trailing user turn. Tool failures are returned
// to the model as failed results.
func (l *Loop) Run(ctx context.Context, input string) (core.Content, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	logger := logging.With(l.logger, "session_id", l.conv.ID())

	abort := func(err error) (core.Content, error) {
		l.setState(StateAwaitingUserInput)
		logger.Warn("agent.request.aborted", "error", err.Error(), "turns", l.conv.Len())

		return core.Content{}, err
	}

	system, err := l.instruction.Resolve(ctx)
	if err != nil {
		return abort(fmt.Errorf("resolve instruction: %w", err))
	}

	if err := l.conv.AppendUserText(input); err != nil {
		return abort(err)
	}

	var descs []tool.Descriptor
	if l.tools != nil {
		descs = l.tools.Descriptors()
	}

	limiter := NewRoundLimiter(l.maxRounds)
	start := time.Now()

	for {
		l.setState(StateAwaitingModelResponse)

		reply, err := l.sender.SendTurn(ctx, l.conv.Turns(), descs, system)
		if err != nil {
			return abort(err)
		}

		if err := l.conv.Append(reply); err != nil {
			return abort(core.Unsupported("assistant turn: %v", err))
		}

		if l.hooks.OnAssistantTurn != nil {
			l.hooks.OnAssistantTurn(reply)
		}

		calls := reply.FunctionCalls()
		if len(calls) == 0 {
			l.setState(StateDone)
			logger.Info("agent.request.completed",
				"tool_rounds", limiter.Count(),
				"turns", l.conv.Len(),
				"duration_ms", time.Since(start).Milliseconds(),
			)

			return reply, nil
		}

		if err := limiter.Increment(); err != nil {
			if appendErr := l.conv.Append(core.NewToolResults(unanswered(calls, err)...)); appendErr != nil {
				return abort(errors.Join(err, appendErr))
			}

			return abort(err)
		}

		l.setState(StateExecutingTools)

		if l.hooks.OnToolCall != nil {
			for _, fc := range calls {
				l.hooks.OnToolCall(fc)
			}
		}

		results := l.executor.Execute(ctx, calls)

		if l.hooks.OnToolResult != nil {
			for i, fc := range calls {
				l.hooks.OnToolResult(fc, results[i])
			}
		}

		if err := l.conv.Append(core.NewToolResults(results...)); err != nil {
			return abort(err)
		}

		if err := ctx.Err(); err != nil {
			return abort(err)
		}
	}
}

// unanswered answers calls that will not run with failed results.
func unanswered(calls []core.FunctionCall, err error) []core.FunctionResponse {
	out := make([]core.FunctionResponse, len(calls))
	for i, fc := range calls {
		out[i] = failure(fc, err)
	}

	return out
}
