package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/itsatony/go-glaze"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	engine     *glaze.EngineType
	layoutPath string
	file       string
	locals     map[string]any
	outputPath string
	debug      bool
}

// cliFailure is an option error carrying its own exit code. Options are
// validated as they are parsed, so the first bad option decides the outcome.
type cliFailure struct {
	code int
	msg  string
}

func (f *cliFailure) Error() string { return f.msg }

func fail(code int, format string, args ...any) *cliFailure {
	return &cliFailure{code: code, msg: fmt.Sprintf(format, args...)}
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	level := zap.NewAtomicLevelAt(zapcore.FatalLevel)
	logger := newStderrLogger(stderr, level)

	reg, err := newRegistry(logger)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderSetupFailed, err)
		return ExitCodeError
	}

	cfg, failure := parseRenderFlags(args, reg)
	if failure != nil {
		if failure.code == ExitCodeSuccess {
			fmt.Fprintln(stdout, HelpRenderUsage)
		} else {
			fmt.Fprintln(stderr, failure.msg)
		}
		return failure.code
	}

	if cfg.debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	opts := []glaze.TemplateOption{glaze.WithTemplateLogger(logger)}
	if cfg.file == "" {
		source, err := readInput(stdin)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadStdinFailed, err)
			return ExitCodeError
		}
		opts = append(opts, glaze.WithSource(source))
	} else {
		opts = append(opts, glaze.WithFile(cfg.file))
	}

	tmpl, err := glaze.NewTemplate(cfg.engine, opts...)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderFailed, err)
		return ExitCodeError
	}

	ctx := context.Background()
	output, err := tmpl.Render(ctx, nil, cfg.locals, nil)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderFailed, err)
		return ExitCodeError
	}

	if cfg.layoutPath != "" {
		layout, err := reg.New(cfg.layoutPath, glaze.WithTemplateLogger(logger))
		if err != nil {
			if glaze.IsConfigError(err) {
				fmt.Fprintf(stderr, ErrMsgEngineNotFound+FmtNewline, cfg.layoutPath)
				return ExitCodeNoEngine
			}
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderFailed, err)
			return ExitCodeError
		}
		body := output
		output, err = layout.Render(ctx, nil, cfg.locals, func() string { return body })
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderFailed, err)
			return ExitCodeError
		}
	}

	if !strings.HasSuffix(output, FmtNewline) {
		output += FmtNewline
	}
	if err := writeOutput(cfg.outputPath, []byte(output), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}

	return ExitCodeSuccess
}

// parseRenderFlags parses and validates the render options in order.
func parseRenderFlags(args []string, reg *glaze.Registry) (*renderConfig, *cliFailure) {
	fs := flag.NewFlagSet(CmdNameRender, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &renderConfig{locals: make(map[string]any)}
	var failure *cliFailure
	check := func(f *cliFailure) error {
		if f != nil {
			failure = f
			return f
		}
		return nil
	}

	setType := func(v string) error {
		engine, err := reg.Resolve(v)
		if err != nil || engine == nil {
			return check(fail(ExitCodeUnknownType, ErrMsgUnknownType, v))
		}
		cfg.engine = engine
		return nil
	}
	setLayout := func(v string) error {
		if _, err := os.Stat(v); err != nil {
			return check(fail(ExitCodeMissingLayout, ErrMsgNoSuchLayout, v))
		}
		cfg.layoutPath = v
		return nil
	}
	setDefine := func(v string) error {
		name, value, err := parseDefine(v)
		if err != nil {
			return check(fail(ExitCodeUsageError, "%s", err.Error()))
		}
		cfg.locals[name] = value
		return nil
	}
	setData := func(v string) error {
		if _, err := os.Stat(v); err != nil {
			return check(fail(ExitCodeInvalidLocals, ErrMsgNoSuchDefineFile, v))
		}
		locals, err := readLocalsFile(v)
		if err != nil {
			return check(fail(ExitCodeInvalidLocals, "%s", err.Error()))
		}
		merge(cfg.locals, locals)
		return nil
	}
	setVars := func(v string) error {
		locals, err := parseVars(v)
		if err != nil {
			return check(fail(ExitCodeInvalidLocals, "%s", err.Error()))
		}
		merge(cfg.locals, locals)
		return nil
	}

	fs.Func(FlagType, "", setType)
	fs.Func(FlagTypeShort, "", setType)
	fs.Func(FlagLayout, "", setLayout)
	fs.Func(FlagLayoutShort, "", setLayout)
	fs.Func(FlagDefine, "", setDefine)
	fs.Func(FlagDefineShort, "", setDefine)
	fs.Func(FlagData, "", setData)
	fs.Func(FlagDataShort, "", setData)
	fs.Func(FlagVars, "", setVars)
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	fs.BoolVar(&cfg.debug, FlagDebug, false, "")

	if err := fs.Parse(args); err != nil {
		if failure != nil {
			return nil, failure
		}
		if errors.Is(err, flag.ErrHelp) {
			return nil, &cliFailure{code: ExitCodeSuccess}
		}
		return nil, fail(ExitCodeUsageError, "%s: %v", ErrMsgInvalidOptions, err)
	}

	switch fs.NArg() {
	case 0:
	case 1:
		cfg.file = fs.Arg(0)
	default:
		return nil, fail(ExitCodeUsageError, "%s", HelpRenderUsage)
	}

	if cfg.engine == nil {
		if cfg.file == "" {
			return nil, fail(ExitCodeNoType, ErrMsgTypeNotGiven, CLIName, CmdNameRender)
		}
		engine, err := reg.Resolve(cfg.file)
		if err != nil || engine == nil {
			return nil, fail(ExitCodeNoEngine, ErrMsgEngineNotFound, cfg.file)
		}
		cfg.engine = engine
	}

	return cfg, nil
}

// merge copies src into dst; later sources win.
func merge(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

// newRegistry builds the CLI's mapping from the linked engines.
func newRegistry(logger *zap.Logger) (*glaze.Registry, error) {
	reg := glaze.NewRegistry(
		glaze.WithLoader(glaze.DefaultLoader()),
		glaze.WithNamespace(glaze.DefaultNamespace()),
		glaze.WithLogger(logger),
	)
	if err := registerBuiltins(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// registerBuiltins fills the CLI registry; tests replace it.
var registerBuiltins = glaze.RegisterBuiltins

// newStderrLogger writes development-style log lines to w. The level starts
// above anything the library logs and is lowered by --debug.
func newStderrLogger(w io.Writer, level zap.AtomicLevel) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}
