package glaze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Test fakes shared by the package tests.

var errBadToken = errors.New("bad token")

// counters instruments a fake engine.
type counters struct {
	prepares atomic.Int64
	compiles atomic.Int64
	renders  atomic.Int64
}

// newCountingEngine returns a compiling engine that substitutes #{name}
// markers with locals. "#{yield}" calls the continuation and "#{self}" prints
// the scope. A "<<bad>>" marker on any line fails preparation at that line; an
// unbound marker fails rendering at its line.
func newCountingEngine(name string, c *counters) *EngineType {
	return NewEngineType(name, KindCompiling, Metadata{MimeType: "text/plain"}, func() Processor {
		return &countingProcessor{c: c}
	})
}

type countingProcessor struct {
	c     *counters
	data  string
	delay time.Duration
}

func (p *countingProcessor) Prepare(t *Template) error {
	p.c.prepares.Add(1)
	if d, ok := t.Options()["delay"].(time.Duration); ok {
		p.delay = d
		time.Sleep(d)
	}
	for i, line := range strings.Split(t.Data(), "\n") {
		if strings.Contains(line, "<<bad>>") {
			return AtLine(i+1, 0, errBadToken)
		}
	}
	p.data = t.Data()
	return nil
}

func (p *countingProcessor) Compile(shape Shape) (Renderer, error) {
	p.c.compiles.Add(1)
	return &fakeRenderer{data: p.data, shape: shape, c: p.c}, nil
}

type fakeRenderer struct {
	data  string
	shape Shape
	c     *counters
}

func (r *fakeRenderer) Render(ctx context.Context, scope any, locals map[string]any, yield YieldFunc) (string, error) {
	r.c.renders.Add(1)
	out := r.data
	if strings.Contains(out, "#{yield}") {
		out = strings.ReplaceAll(out, "#{yield}", yield())
	}
	out = strings.ReplaceAll(out, "#{self}", fmt.Sprint(scope))
	for _, name := range r.shape.Locals {
		out = strings.ReplaceAll(out, "#{"+name+"}", fmt.Sprint(locals[name]))
	}
	if i := strings.Index(out, "#{"); i >= 0 {
		line := strings.Count(out[:i], "\n") + 1
		return "", AtLine(line, 0, fmt.Errorf("undefined local in %q", out[i:]))
	}
	return out, nil
}

func (r *fakeRenderer) Listing() string {
	return "substitute " + strings.Join(r.shape.Locals, ",")
}

// newPanickingEngine returns a compiling engine whose Prepare panics.
func newPanickingEngine(name string, c *counters) *EngineType {
	return NewEngineType(name, KindCompiling, Metadata{MimeType: "text/plain"}, func() Processor {
		return &panickingProcessor{c: c}
	})
}

type panickingProcessor struct {
	c *counters
}

func (p *panickingProcessor) Prepare(t *Template) error {
	p.c.prepares.Add(1)
	panic("loader missing")
}

func (p *panickingProcessor) Compile(shape Shape) (Renderer, error) {
	p.c.compiles.Add(1)
	return &fakeRenderer{shape: shape, c: p.c}, nil
}

// newStaticEngine returns a static engine whose output is the upper-cased
// source tagged with the prepare count.
func newStaticEngine(name string, c *counters) *EngineType {
	return NewEngineType(name, KindStatic, Metadata{MimeType: "text/html"}, func() Processor {
		return &staticProcessor{c: c}
	})
}

type staticProcessor struct {
	c      *counters
	output string
}

func (p *staticProcessor) Prepare(t *Template) error {
	n := p.c.prepares.Add(1)
	p.output = fmt.Sprintf("%s#%d", strings.ToUpper(t.Data()), n)
	return nil
}

func (p *staticProcessor) Output() string { return p.output }

// countingLoader records every load target it is asked for.
type countingLoader struct {
	inner Loader
	loads atomic.Int64
	seen  []string
}

func (l *countingLoader) Load(ns *Namespace, target string) error {
	l.loads.Add(1)
	l.seen = append(l.seen, target)
	return l.inner.Load(ns, target)
}

// greeter is a named scope type.
type greeter struct {
	Name string
}

func (g greeter) String() string { return "greeter(" + g.Name + ")" }

// otherScope is a second named scope type.
type otherScope struct{}
