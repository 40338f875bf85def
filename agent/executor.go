package agent

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/logging"
	"github.com/hupe1980/nanocode/tool"
)

// FunctionExecutor executes a batch of tool calls and returns one response per
// call, in call order. Implementations must:
//   - Respect ctx cancellation
//   - Never panic (recover internally and report a failure response)
//   - Return exactly one FunctionResponse per incoming FunctionCall
type FunctionExecutor interface {
	Execute(ctx context.Context, calls []core.FunctionCall) []core.FunctionResponse
}

// FunctionExecutorConfig configures the default parallel executor.
type FunctionExecutorConfig struct {
	MaxParallel int // 0 or <1 => no explicit limit (len(calls))
	Logger      logging.Logger
}

// parallelFunctionExecutor is the default implementation.
type parallelFunctionExecutor struct {
	tools tool.Executor
	cfg   FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs a new executor dispatching to tools.
func NewParallelFunctionExecutor(tools tool.Executor, cfg FunctionExecutorConfig) FunctionExecutor {
	if cfg.Logger == nil {
		cfg.Logger = logging.NoOpLogger{}
	}

	return &parallelFunctionExecutor{tools: tools, cfg: cfg}
}

func (e *parallelFunctionExecutor) Execute(ctx context.Context, calls []core.FunctionCall) []core.FunctionResponse {
	n := len(calls)
	if n == 0 {
		return nil
	}

	results := make([]core.FunctionResponse, n)

	// Fast path: single call, execute inline.
	if n == 1 {
		results[0] = e.executeOne(ctx, calls[0])
		return results
	}

	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	var wg sync.WaitGroup

	sem := make(chan struct{}, maxPar)

	batchStart := time.Now()

	for i := range calls {
		wg.Add(1)

		sem <- struct{}{}

		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()

			// Each goroutine writes only its own slot.
			results[idx] = e.executeOne(ctx, fc)
		}(i, calls[i])
	}

	wg.Wait()

	e.cfg.Logger.Debug(
		"agent.functions.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

func (e *parallelFunctionExecutor) executeOne(ctx context.Context, fc core.FunctionCall) core.FunctionResponse {
	if err := ctx.Err(); err != nil {
		return failure(fc, err)
	}

	e.cfg.Logger.Debug("agent.function.start", "function", fc.Name, "function_call_id", fc.ID)

	start := time.Now()

	var (
		result any
		err    error
	)

	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = panicError(fc.Name, r)
				e.cfg.Logger.Error("agent.function.panic", "function", fc.Name, "recover", fmt.Sprint(r))
			}
		}()

		result, err = e.call(ctx, fc)
	}()

	if err != nil {
		logging.LogToolCall(e.cfg.Logger, fc.Name, fc.ID, time.Since(start), fmt.Errorf("%w: %w", core.ErrToolExecutionFailed, err))
		return failure(fc, err)
	}

	logging.LogToolCall(e.cfg.Logger, fc.Name, fc.ID, time.Since(start), nil)

	return core.FunctionResponse{ID: fc.ID, Response: result}
}

func (e *parallelFunctionExecutor) call(ctx context.Context, fc core.FunctionCall) (any, error) {
	if e.tools == nil {
		return nil, tool.NewToolError(fc.Name, fmt.Sprintf("tool %s not found", fc.Name), tool.CodeNotFound)
	}

	args := fc.Arguments
	if args == nil {
		args = map[string]any{}
	}

	return e.tools.Execute(ctx, fc.Name, args)
}

// failure renders an error as a failed tool result the model can read.
func failure(fc core.FunctionCall, err error) core.FunctionResponse {
	msg := err.Error()

	var te *tool.ToolError
	if errors.As(err, &te) {
		msg = te.Message
	}

	return core.FunctionResponse{ID: fc.ID, Response: "error: " + msg, IsError: true}
}

// panicError converts a recovered panic value to a tool error, keeping the stack for logs.
func panicError(name string, r any) error {
	return &tool.ToolError{
		Tool:    name,
		Message: fmt.Sprintf("panic: %v", r),
		Code:    tool.CodePanic,
		Details: string(debug.Stack()),
	}
}
