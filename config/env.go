package config

import (
	"os"
	"strconv"
)

// Environment variable names spec.md §6 defines. All are optional.
const (
	EnvMaxThreadDepth       = "MCMINI_MAX_THREAD_DEPTH"
	EnvDebugAtTrace         = "MCMINI_DEBUG_AT_TRACE"
	EnvPrintAtTrace         = "MCMINI_PRINT_AT_TRACE"
	EnvStopAtFirstDeadlock  = "MCMINI_STOP_AT_FIRST_DEADLOCK"
	EnvCheckForwardProgress = "MCMINI_CHECK_FORWARD_PROGRESS"
	EnvTemplateLoop         = "libmcmini-template-loop"
)

func parseUint(name string) (uint64, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseBool(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return v != "" // any non-empty, non-boolean value is treated as truthy
	}
	return b
}

// FromEnvironment reads spec.md §6's environment variables and returns the
// Options they imply, to be applied after (and so able to override) any
// Options the caller already built from flags. A variable that is unset or
// fails to parse is silently skipped, per §6 "all optional".
func FromEnvironment() []Option {
	var opts []Option

	if n, ok := parseUint(EnvMaxThreadDepth); ok {
		opts = append(opts, WithMaxThreadExecutionDepth(n))
	}
	if n, ok := parseUint(EnvDebugAtTrace); ok {
		opts = append(opts, WithDebugAtTrace(n))
	}
	if n, ok := parseUint(EnvPrintAtTrace); ok {
		opts = append(opts, WithPrintAtTrace(n))
	}
	if parseBool(EnvStopAtFirstDeadlock) {
		opts = append(opts, WithStopAtFirstDeadlock())
	}
	if n, ok := parseUint(EnvCheckForwardProgress); ok && n > 0 {
		opts = append(opts, WithExtraLivenessTransitions(n, 1))
	}

	return opts
}

// IsTemplateLoop reports whether this process should act as the template
// process (spec.md §6 "libmcmini-template-loop") rather than as a runner.
func IsTemplateLoop() bool {
	_, ok := os.LookupEnv(EnvTemplateLoop)
	return ok
}
