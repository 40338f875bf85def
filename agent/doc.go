// Package agent runs the agentic loop of nanocode.
//
// A Loop owns one conversation. Each Run appends the user's request, sends the
// history to the model through a Sender, executes requested tools in parallel
// with a FunctionExecutor and feeds the results back until the model replies
// without tool calls:
//
//	AwaitingUserInput -> AwaitingModelResponse -> ExecutingTools -> ... -> Done
//
// Tool failures never abort a request; they are returned to the model as
// failed results. Provider errors and exceeding the tool round limit abort the
// request and roll the conversation back to where it was before the request.
package agent
