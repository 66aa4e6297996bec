// Package config implements dporcheck's configuration surface: the
// functional-options pattern the teacher's config.go/config/*.go use
// (SchedulerOption/SimulatorOption, a RunOpt/RunnerOpt marker-interface
// dispatch), plus the environment-variable layer spec.md §6 names.
package config

import "io"

// Option is the marker interface every configuration option implements,
// mirroring the teacher's SimulatorOption/RunOpt/RunnerOpt markers.
type Option interface {
	apply(*Settings)
}

// Settings is the resolved configuration after applying every Option and
// every recognized environment variable. cmd/dporcheck copies its fields
// into scheduler.Config and runner setup; config itself never imports
// scheduler, so the two packages stay decoupled the way the teacher keeps
// config.go free of any dependency on a specific GlobalScheduler
// implementation.
type Settings struct {
	// MaxThreadExecutionDepth caps how many transitions any single thread
	// may execute before the scheduler artificially disables it (spec.md
	// §4.5.3). Zero means unlimited.
	MaxThreadExecutionDepth uint64
	// ExtraLivenessTransitions and MinExtraLivenessTransitions configure
	// the forward-progress detector (spec.md §4.7). Zero
	// ExtraLivenessTransitions disables the check.
	ExtraLivenessTransitions    uint64
	MinExtraLivenessTransitions uint64
	// StopAtFirstDeadlock halts exploration as soon as one deadlocking
	// schedule is found, rather than continuing to exhaust the state
	// space (spec.md §6, §7).
	StopAtFirstDeadlock bool
	// DebugAtTrace, if non-zero, requests a debugger session be attached
	// when the engine reaches this trace id (spec.md §6
	// MCMINI_DEBUG_AT_TRACE). Left to the caller to act on via
	// scheduler.Hooks.
	DebugAtTrace uint64
	// PrintAtTrace, if non-zero, requests the transition stack be dumped
	// and exploration stopped at this trace id (spec.md §6
	// MCMINI_PRINT_AT_TRACE).
	PrintAtTrace uint64
	// Export collects writers the explored schedule should be reported
	// to, mirroring the teacher's ExportOption (config.go's
	// ExportOption). Can be supplied more than once.
	Export []io.Writer
}

type maxThreadExecutionDepthOption uint64

func (o maxThreadExecutionDepthOption) apply(s *Settings) { s.MaxThreadExecutionDepth = uint64(o) }

// WithMaxThreadExecutionDepth caps per-thread executed transitions.
func WithMaxThreadExecutionDepth(n uint64) Option { return maxThreadExecutionDepthOption(n) }

type extraLivenessOption struct{ extra, min uint64 }

func (o extraLivenessOption) apply(s *Settings) {
	s.ExtraLivenessTransitions = o.extra
	s.MinExtraLivenessTransitions = o.min
}

// WithExtraLivenessTransitions enables the forward-progress detector.
func WithExtraLivenessTransitions(extra, min uint64) Option {
	return extraLivenessOption{extra: extra, min: min}
}

type stopAtFirstDeadlockOption struct{}

func (stopAtFirstDeadlockOption) apply(s *Settings) { s.StopAtFirstDeadlock = true }

// WithStopAtFirstDeadlock halts exploration at the first deadlock found.
func WithStopAtFirstDeadlock() Option { return stopAtFirstDeadlockOption{} }

type exportOption struct{ w io.Writer }

func (o exportOption) apply(s *Settings) { s.Export = append(s.Export, o.w) }

// WithExportWriter adds w as a destination the explored schedule is
// reported to.
func WithExportWriter(w io.Writer) Option { return exportOption{w: w} }

type debugAtTraceOption uint64

func (o debugAtTraceOption) apply(s *Settings) { s.DebugAtTrace = uint64(o) }

// WithDebugAtTrace requests a debugger session at the given trace id.
func WithDebugAtTrace(traceID uint64) Option { return debugAtTraceOption(traceID) }

type printAtTraceOption uint64

func (o printAtTraceOption) apply(s *Settings) { s.PrintAtTrace = uint64(o) }

// WithPrintAtTrace requests a transition-stack dump at the given trace id.
func WithPrintAtTrace(traceID uint64) Option { return printAtTraceOption(traceID) }

// Apply resolves Settings from a sequence of Options, exactly the
// teacher's PrepareSimulation dispatch loop (config.go), generalized from
// a type-switch over concrete option structs to the apply-method form
// Go's interface embedding makes equally explicit.
func Apply(opts ...Option) Settings {
	var s Settings
	for _, opt := range opts {
		opt.apply(&s)
	}
	return s
}
