// Package builtin provides the coding tools exposed to the model: read, write,
// edit, glob, grep and bash. Each tool is a tool.FunctionTool operating relative
// to a configurable working directory.
package builtin
