package glaze

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

// CacheStats reports compiled-artifact cache activity for one template.
type CacheStats struct {
	Hits     int64
	Misses   int64
	Compiles int64
	Entries  int
}

// Compiled returns the artifact for the shape of (scope, locals), compiling it
// if needed. Static engines have no artifacts and return a configuration error.
func (t *Template) Compiled(scope any, locals map[string]any) (Renderer, error) {
	if err := t.prepare(); err != nil {
		return nil, err
	}
	if t.engine.kind == KindStatic {
		return nil, NewConfigError(ErrMsgStaticCompile).WithMetadata(MetaKeyEngine, t.engine.Name())
	}
	return t.compiledFor(ShapeOf(scope, locals))
}

// compiledFor looks up the artifact for shape. On a miss it compiles outside
// the lock and stores the result unless a concurrent render stored one first;
// every caller then uses the stored artifact.
func (t *Template) compiledFor(shape Shape) (Renderer, error) {
	key := shape.key()

	t.cacheMu.RLock()
	renderer, ok := t.compiled[key]
	t.cacheMu.RUnlock()
	if ok {
		t.hits.Add(1)
		return renderer, nil
	}
	t.misses.Add(1)

	compiler, ok := t.processor.(CompilingProcessor)
	if !ok {
		return nil, NewConfigError(ErrMsgKindMismatch).WithMetadata(MetaKeyEngine, t.engine.Name())
	}
	built, err := compiler.Compile(shape)
	if err != nil {
		return nil, err
	}
	t.compiles.Add(1)

	t.cacheMu.Lock()
	if existing, ok := t.compiled[key]; ok {
		t.cacheMu.Unlock()
		t.logger.Debug(LogMsgArtifactRaced,
			zap.String(LogFieldScope, shape.ScopeName()),
			zap.Strings(LogFieldLocals, shape.Locals))
		return existing, nil
	}
	t.compiled[key] = built
	t.cacheMu.Unlock()

	t.logger.Debug(LogMsgArtifactCompiled,
		zap.String(LogFieldEngine, t.engine.Name()),
		zap.String(LogFieldScope, shape.ScopeName()),
		zap.Strings(LogFieldLocals, shape.Locals))
	t.writeCompiledPath(shape, built)
	return built, nil
}

// CompiledCount returns the number of cached artifacts.
func (t *Template) CompiledCount() int {
	t.cacheMu.RLock()
	defer t.cacheMu.RUnlock()
	return len(t.compiled)
}

// CacheStats returns a snapshot of the template's cache counters.
func (t *Template) CacheStats() CacheStats {
	return CacheStats{
		Hits:     t.hits.Load(),
		Misses:   t.misses.Load(),
		Compiles: t.compiles.Load(),
		Entries:  t.CompiledCount(),
	}
}

// anonymousScope reports whether the scope type has no name to record.
func anonymousScope(scope reflect.Type) bool {
	if scope == nil {
		return false
	}
	for scope.Kind() == reflect.Pointer {
		scope = scope.Elem()
	}
	return scope.Name() == ""
}

// writeCompiledPath dumps the artifact listing when a compiled path is set.
func (t *Template) writeCompiledPath(shape Shape, renderer Renderer) {
	if t.compiledPath == "" {
		return
	}
	if anonymousScope(shape.Scope) {
		t.logger.Warn(LogMsgCompiledPathSkip,
			zap.String(LogFieldScope, shape.ScopeName()),
			zap.String(LogFieldPath, t.compiledPath))
		return
	}

	t.pathMu.Lock()
	n := t.pathCount
	t.pathCount++
	t.pathMu.Unlock()

	path := t.compiledPath + CompiledPathExtension
	if n > 0 {
		path = fmt.Sprintf(FmtCompiledPathNext, t.compiledPath, n, CompiledPathExtension)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, FmtListingHeader, shape.ScopeName(), strings.Join(shape.Locals, ", "))
	if lister, ok := renderer.(Lister); ok {
		sb.WriteString(lister.Listing())
	}

	if err := atomic.WriteFile(path, strings.NewReader(sb.String())); err != nil {
		t.logger.Warn(LogMsgCompiledPathError, zap.String(LogFieldPath, path), zap.Error(err))
		return
	}
	t.logger.Debug(LogMsgCompiledPathWrite, zap.String(LogFieldPath, path))
}
