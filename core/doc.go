// Package core provides the canonical, provider-agnostic conversation model
// shared by every other nanocode package:
//
//   - Content (a Turn): role plus an ordered list of heterogeneous Parts
//   - Parts: text, function (tool) calls and function (tool) responses
//   - Conversation: the append-only chat history owned by the agent loop
//   - The error taxonomy surfaced by providers, converters and the loop
//
// Provider packages translate these types to and from their wire formats; the
// agent loop is the only component that mutates a Conversation.
package core
