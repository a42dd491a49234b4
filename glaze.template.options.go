package glaze

import (
	"context"
	"strconv"

	"go.uber.org/zap"
)

// Options is the engine option mapping carried by a template.
type Options map[string]any

// String returns the string option for key, or def when absent or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the boolean option for key. String values are parsed with strconv.ParseBool.
func (o Options) Bool(key string, def bool) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Int returns the integer option for key. String values are parsed with strconv.Atoi.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Has reports whether key is set.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// clone returns a shallow copy
func (o Options) clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// SourceFunc produces template source lazily. It receives the template being
// constructed so it can consult File, Line and Options.
type SourceFunc func(t *Template) (string, error)

// TemplateOption is a functional option for configuring a Template.
type TemplateOption func(*templateConfig)

// templateConfig holds the construction inputs for a Template.
type templateConfig struct {
	file         string
	line         int
	options      Options
	source       *string
	sourceFunc   SourceFunc
	compiledPath string
	logger       *zap.Logger
}

// defaultTemplateConfig returns the default template configuration.
func defaultTemplateConfig() *templateConfig {
	return &templateConfig{
		line:    DefaultTemplateLine,
		options: Options{},
	}
}

// WithFile sets the originating file. Without a source it is also read for content.
func WithFile(file string) TemplateOption {
	return func(c *templateConfig) {
		c.file = file
	}
}

// WithLine sets the starting line used for error locations.
// Default: 1
func WithLine(line int) TemplateOption {
	return func(c *templateConfig) {
		if line > 0 {
			c.line = line
		}
	}
}

// WithOptions merges opts into the template options.
func WithOptions(opts Options) TemplateOption {
	return func(c *templateConfig) {
		for k, v := range opts {
			c.options[k] = v
		}
	}
}

// WithOption sets a single template option.
func WithOption(key string, value any) TemplateOption {
	return func(c *templateConfig) {
		c.options[key] = value
	}
}

// WithSource supplies the template source directly.
func WithSource(source string) TemplateOption {
	return func(c *templateConfig) {
		c.source = &source
		c.sourceFunc = nil
	}
}

// WithSourceFunc supplies a deferred source producer, called once during construction.
func WithSourceFunc(fn SourceFunc) TemplateOption {
	return func(c *templateConfig) {
		c.sourceFunc = fn
		c.source = nil
	}
}

// WithStore reads the source for path from store. The path becomes the
// template file when none is set.
func WithStore(ctx context.Context, store SourceStore, path string) TemplateOption {
	return func(c *templateConfig) {
		if c.file == "" {
			c.file = path
		}
		c.source = nil
		c.sourceFunc = func(t *Template) (string, error) {
			src, err := store.Fetch(ctx, path)
			if err != nil {
				return "", err
			}
			return src.Data, nil
		}
	}
}

// WithCompiledPath writes a listing of every compiled artifact to base.txt,
// base-1.txt, and so on. Artifacts compiled for anonymous scope types are skipped.
func WithCompiledPath(base string) TemplateOption {
	return func(c *templateConfig) {
		c.compiledPath = base
	}
}

// WithTemplateLogger sets the logger for the template.
// Default: nil (no logging)
func WithTemplateLogger(logger *zap.Logger) TemplateOption {
	return func(c *templateConfig) {
		c.logger = logger
	}
}
