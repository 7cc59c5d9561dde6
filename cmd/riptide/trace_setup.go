package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"riptide/internal/trace"
)

// setupTracing merges the manifest's [trace] section with trace-related
// flags (flags win) and initializes the tracer. It returns the tracer and a
// cleanup function.
func setupTracing(cmd *cobra.Command, mf *manifest) (trace.Tracer, func(), error) {
	root := cmd.Root()
	flags := root.PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}

	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}

	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}

	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	heartbeatInterval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	// Manifest fills in whatever the flags left at their defaults.
	if mf != nil {
		tc := mf.Config.Trace
		if !flags.Changed("trace") && tc.Output != "" {
			traceOutput = tc.Output
		}
		if !flags.Changed("trace-level") && tc.Level != "" {
			levelStr = tc.Level
		}
		if !flags.Changed("trace-mode") && tc.Mode != "" {
			modeStr = tc.Mode
		}
		if !flags.Changed("trace-ring-size") && tc.RingSize > 0 {
			ringSize = int(tc.RingSize)
		}
		if !flags.Changed("trace-heartbeat") && tc.Heartbeat != "" {
			d, err := time.ParseDuration(tc.Heartbeat)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: [trace].heartbeat: %w", mf.Path, err)
			}
			heartbeatInterval = d
		}
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}

	// Level off with no output means tracing stays disabled.
	if level == trace.LevelOff && traceOutput == "" {
		ctx := trace.WithTracer(cmd.Context(), trace.Nop)
		cmd.SetContext(ctx)
		return trace.Nop, func() {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace mode: %w", err)
	}

	cfg := trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  durationOrZero(heartbeatInterval),
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if cfg.Heartbeat > 0 {
		heartbeat = trace.StartHeartbeat(tracer, cfg.Heartbeat)
	}

	cleanup := func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}

	return tracer, cleanup, nil
}
