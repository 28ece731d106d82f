package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/cache"
	"github.com/wippyai/wasm-bench/config"
	"github.com/wippyai/wasm-bench/engine"
	"github.com/wippyai/wasm-bench/runtime"
)

type options struct {
	wasmFile   string
	backends   string
	mode       string
	key        string
	configFile string
	arg        uint
	repeat     int
	list       bool
	verbose    bool
	metrics    bool
}

func main() {
	var o options
	flag.StringVar(&o.wasmFile, "wasm", "", "Path to core wasm module")
	flag.StringVar(&o.backends, "backend", "", "Comma-separated backends (default: all available)")
	flag.StringVar(&o.mode, "mode", string(runtime.ModeAOTTotal), "Mode: jit, aot_c, aot_e, aot_t, call")
	flag.StringVar(&o.key, "key", "", "Artifact key for aot_e")
	flag.StringVar(&o.configFile, "config", "", "YAML config file")
	flag.UintVar(&o.arg, "arg", 10, "Argument passed to the entry point")
	flag.IntVar(&o.repeat, "n", 1, "Repetitions per backend")
	flag.BoolVar(&o.list, "list", false, "List imports and exports and exit")
	flag.BoolVar(&o.verbose, "v", false, "Debug logging")
	flag.BoolVar(&o.metrics, "metrics", false, "Print cache counters after the run")
	interactive := flag.Bool("i", false, "Interactive mode with TUI")
	flag.Parse()

	if o.wasmFile == "" && o.mode != string(runtime.ModeAOTExecute) {
		fmt.Fprintln(os.Stderr, "Usage: wasmbench -wasm <file.wasm> [-backend b1,b2] [-mode aot_t] [-arg 10] [-n 1]")
		fmt.Fprintln(os.Stderr, "       wasmbench -mode aot_e -key <key> [-backend b]")
		fmt.Fprintln(os.Stderr, "       wasmbench -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       wasmbench -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(o); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration, installs the logger and opens the runtime.
// Flags take precedence over the config file and environment.
func setup(ctx context.Context, o options, reg prometheus.Registerer) (*runtime.Runtime, []backend.Backend, *zap.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if o.backends != "" {
		cfg.Backends = strings.Split(o.backends, ",")
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	lvl, _ := cfg.Level()
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("logger: %w", err)
	}
	engine.SetLogger(logger)
	cache.SetLogger(logger)

	rc := cfg.Runtime()
	rc.Registerer = reg
	rt, err := runtime.New(ctx, rc)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}

	requested, _ := cfg.ParseBackends()
	var selected []backend.Backend
	for _, b := range requested {
		if engine.Available(b) {
			selected = append(selected, b)
		} else if o.backends != "" || len(cfg.Backends) > 0 {
			logger.Warn("backend not available in this build", zap.String("backend", b.String()))
		}
	}
	return rt, selected, logger, nil
}

func run(ctx context.Context, o options, w io.Writer) error {
	var bin []byte
	if o.wasmFile != "" {
		data, err := os.ReadFile(o.wasmFile)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		bin = data
	}

	if o.list {
		return printModule(w, o.wasmFile, bin)
	}

	mode, err := runtime.ParseMode(o.mode)
	if err != nil {
		return err
	}
	if o.arg > math.MaxUint32 {
		return fmt.Errorf("-arg %d does not fit in u32", o.arg)
	}
	if o.repeat < 1 {
		o.repeat = 1
	}

	reg := prometheus.NewRegistry()
	rt, backends, logger, err := setup(ctx, o, reg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer rt.Close(ctx)

	if len(backends) == 0 {
		return fmt.Errorf("no selected backend is available in this build")
	}

	in := runtime.Input{Wasm: bin, Arg: uint32(o.arg)}
	if o.key != "" {
		k, err := cache.ParseKey(o.key)
		if err != nil {
			return err
		}
		in.Key = k
	}

	fmt.Fprintf(w, "%-20s %-6s %-46s %10s %14s\n", "BACKEND", "MODE", "KEY", "RESULT", "ELAPSED")
	var failed int
	for _, b := range backends {
		runner := rt.Runner(b)
		for i := 0; i < o.repeat; i++ {
			out, err := runner.Run(ctx, mode, in)
			if err != nil {
				failed++
				fmt.Fprintf(w, "%-20s %-6s error: %v\n", b, mode, err)
				break
			}
			fmt.Fprintln(w, formatOutcome(out))
		}
	}

	if o.metrics {
		if err := printMetrics(w, reg); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d backend(s) failed", failed, len(backends))
	}
	return nil
}

func formatOutcome(out runtime.Outcome) string {
	key := out.Key.String()
	if key == "" {
		key = "-"
	}
	result := "-"
	if out.Mode != runtime.ModeAOTCompile {
		result = fmt.Sprintf("%d", out.Result)
	}
	return fmt.Sprintf("%-20s %-6s %-46s %10s %14s", out.Backend, out.Mode, key, result, out.Elapsed.Round(time.Microsecond))
}

func printModule(w io.Writer, name string, bin []byte) error {
	info, err := inspect(bin)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Module: %s\n", name)
	// Not a module key: those hash the compiled artifact and come from aot_c.
	fmt.Fprintf(w, "Source digest: %s\n", cache.KeyOf(bin))
	fmt.Fprintf(w, "Imports: %d\n", len(info.imports))
	for _, imp := range info.imports {
		fmt.Fprintf(w, "  %s\n", imp)
	}
	fmt.Fprintf(w, "\nExports:\n")
	for _, e := range info.exports {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return nil
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	fmt.Fprintf(w, "\n")
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			sort.Strings(labels)
			fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
	return nil
}
