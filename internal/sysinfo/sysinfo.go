// Package sysinfo describes the host so the model can suggest commands and
// paths that fit it.
package sysinfo

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// DevTools are probed on PATH.
var DevTools = []string{"git", "npm", "node", "pip", "docker", "make"}

// Info is a snapshot of the host environment.
type Info struct {
	OS        string
	GoVersion string
	Shell     string
	CWD       string
	Tools     []string
}

// Options replace the host probes, mainly for tests.
type Options struct {
	GOOS     string
	Getenv   func(string) string
	Getwd    func() (string, error)
	LookPath func(string) (string, error)
}

// Gather collects host information.
func Gather(optFns ...func(o *Options)) Info {
	opts := Options{
		GOOS:     runtime.GOOS,
		Getenv:   os.Getenv,
		Getwd:    os.Getwd,
		LookPath: exec.LookPath,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	info := Info{
		OS:        osName(opts.GOOS),
		GoVersion: strings.TrimPrefix(runtime.Version(), "go"),
		Shell:     "unknown",
	}

	shell := opts.Getenv("SHELL")
	if shell == "" {
		shell = opts.Getenv("COMSPEC")
	}

	if shell != "" {
		// COMSPEC uses backslashes even when running tests elsewhere.
		info.Shell = filepath.Base(strings.ReplaceAll(shell, `\`, "/"))
	}

	if wd, err := opts.Getwd(); err == nil {
		info.CWD = wd
	}

	for _, t := range DevTools {
		if _, err := opts.LookPath(t); err == nil {
			info.Tools = append(info.Tools, t)
		}
	}

	return info
}

// String renders the one-line summary used in the system prompt.
func (i Info) String() string {
	parts := []string{
		"OS: " + i.OS,
		"Go: " + i.GoVersion,
		"Shell: " + i.Shell,
		"CWD: " + i.CWD,
	}

	if len(i.Tools) > 0 {
		parts = append(parts, "Tools: "+strings.Join(i.Tools, ", "))
	}

	return strings.Join(parts, " | ")
}

func osName(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	case "":
		return "unknown"
	default:
		return goos
	}
}
