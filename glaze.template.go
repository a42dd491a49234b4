package glaze

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/itsatony/go-glaze/internal"
	"go.uber.org/zap"
)

// Template is one unit of template source bound to an engine. It is prepared
// on first render and then rendered any number of times, concurrently if need
// be. Compiling engines cache one Renderer per binding shape on the template.
type Template struct {
	engine       *EngineType
	processor    Processor
	file         string
	line         int
	options      Options
	data         string
	encoding     string
	compiledPath string
	logger       *zap.Logger

	prepareOnce sync.Once
	prepareErr  error
	prepared    atomic.Bool

	cacheMu  sync.RWMutex
	compiled map[shapeKey]Renderer
	hits     atomic.Int64
	misses   atomic.Int64
	compiles atomic.Int64

	pathMu    sync.Mutex
	pathCount int
}

// NewTemplate builds a template for engine. A source (WithSource,
// WithSourceFunc or WithStore) or a file (WithFile) is required.
func NewTemplate(engine *EngineType, opts ...TemplateOption) (*Template, error) {
	if engine == nil {
		return nil, NewConfigError(ErrMsgNilEngine)
	}

	config := defaultTemplateConfig()
	for _, opt := range opts {
		opt(config)
	}
	if config.source == nil && config.sourceFunc == nil && config.file == "" {
		return nil, NewConfigError(ErrMsgMissingSource).WithMetadata(MetaKeyEngine, engine.Name())
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	processor, err := engine.newProcessor()
	if err != nil {
		return nil, err
	}

	t := &Template{
		engine:       engine,
		processor:    processor,
		file:         config.file,
		line:         config.line,
		options:      config.options,
		compiledPath: config.compiledPath,
		logger:       logger,
		compiled:     make(map[shapeKey]Renderer),
	}

	explicit := t.explicitEncoding()
	t.encoding = explicit
	if t.encoding == "" {
		t.encoding = DefaultEncoding()
	}

	data, err := t.realize(config, explicit)
	if err != nil {
		return nil, err
	}
	t.data = data
	return t, nil
}

// explicitEncoding returns the encoding named by the options or the engine.
func (t *Template) explicitEncoding() string {
	if enc := t.options.String(OptionDefaultEncoding, ""); enc != "" {
		return enc
	}
	return t.engine.metadata.DefaultEncoding
}

// realize produces the template data. Supplied sources are used verbatim
// unless an explicit encoding applies; files are always decoded.
func (t *Template) realize(config *templateConfig, explicit string) (string, error) {
	var src string
	switch {
	case config.sourceFunc != nil:
		s, err := config.sourceFunc(t)
		if err != nil {
			return "", err
		}
		src = s
	case config.source != nil:
		src = *config.source
	default:
		raw, err := os.ReadFile(t.file)
		if err != nil {
			return "", newCategorized(CategoryConfig, ErrCodeConfig, ErrMsgReadTemplateFailed, err).
				WithMetadata(MetaKeyFile, t.file)
		}
		return Decode(raw, t.encoding)
	}

	if explicit == "" {
		return src, nil
	}
	return Decode([]byte(src), explicit)
}

// Render prepares the template if needed and renders it against scope, locals
// and the optional yield continuation. Static engines ignore the bindings.
func (t *Template) Render(ctx context.Context, scope any, locals map[string]any, yield YieldFunc) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	shape := ShapeOf(scope, locals)
	for _, key := range shape.Locals {
		if !internal.IsLocalName(key) {
			return "", NewLocalsKeyError(key)
		}
	}

	if err := t.prepare(); err != nil {
		return "", err
	}

	if static, ok := t.processor.(StaticProcessor); ok && t.engine.kind == KindStatic {
		return static.Output(), nil
	}

	renderer, err := t.compiledFor(shape)
	if err != nil {
		return "", t.evaluationError(err)
	}
	if yield == nil {
		yield = emptyYield
	}
	out, err := renderer.Render(ctx, scope, locals, yield)
	if err != nil {
		return "", t.evaluationError(err)
	}
	return out, nil
}

func emptyYield() string { return "" }

// prepare runs the engine's one-time setup. Concurrent callers block until it
// completes; a failure is kept and returned to every later caller.
func (t *Template) prepare() error {
	t.prepareOnce.Do(func() {
		if err := t.runPrepare(); err != nil {
			t.prepareErr = t.parseError(err)
			t.logger.Warn(LogMsgPrepareFailed,
				zap.String(LogFieldEngine, t.engine.Name()),
				zap.String(LogFieldFile, t.EvalFile()),
				zap.Error(err))
			return
		}
		t.prepared.Store(true)
		t.logger.Debug(LogMsgTemplatePrepared,
			zap.String(LogFieldEngine, t.engine.Name()),
			zap.String(LogFieldFile, t.EvalFile()))
	})
	return t.prepareErr
}

// runPrepare calls the processor. A panic becomes the prepare error so the
// instance stays failed instead of rendering with a half-built processor.
func (t *Template) runPrepare() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", ErrMsgPreparePanic, r)
		}
	}()
	return t.processor.Prepare(t)
}

// absoluteLine maps an engine-relative line onto the file.
func (t *Template) absoluteLine(err error) int {
	var posErr *PositionError
	if errors.As(err, &posErr) && posErr.Line > 0 {
		return t.line + posErr.Line - 1
	}
	return t.line
}

func (t *Template) parseError(err error) error {
	if ErrorCategoryOf(err) != CategoryNone {
		return err
	}
	return NewParseError(t.EvalFile(), t.absoluteLine(err), err)
}

func (t *Template) evaluationError(err error) error {
	if ErrorCategoryOf(err) != CategoryNone {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return NewEvaluationError(t.EvalFile(), t.absoluteLine(err), err)
}

// Engine returns the template's engine.
func (t *Template) Engine() *EngineType { return t.engine }

// Metadata returns the engine metadata.
func (t *Template) Metadata() Metadata { return t.engine.metadata }

// File returns the originating file, or "" when the template has none.
func (t *Template) File() string { return t.file }

// Line returns the starting line of the template within its file.
func (t *Template) Line() int { return t.line }

// Basename returns the final path element of the file.
func (t *Template) Basename() string {
	if t.file == "" {
		return ""
	}
	return internal.BaseName(t.file)
}

// Name returns the basename up to its first dot: "foo.html.erb" yields "foo".
func (t *Template) Name() string {
	if t.file == "" {
		return ""
	}
	return internal.StemName(t.file)
}

// EvalFile returns the file name used in error locations.
func (t *Template) EvalFile() string {
	if t.file == "" {
		return DefaultEvalFile
	}
	return t.file
}

// Options returns a copy of the template options.
func (t *Template) Options() Options { return t.options.clone() }

// Data returns the realized template source.
func (t *Template) Data() string { return t.data }

// Encoding returns the encoding the source was decoded with.
func (t *Template) Encoding() string { return t.encoding }

// Prepared reports whether preparation completed successfully.
func (t *Template) Prepared() bool { return t.prepared.Load() }

// Logger returns the template logger, for engines that log during preparation.
func (t *Template) Logger() *zap.Logger { return t.logger }
