package glaze

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// pipelineStage is one engine of a pipeline with its extra options
type pipelineStage struct {
	ext     string
	engine  *EngineType
	options Options
}

// RegisterPipeline registers a compiling engine for a dotted extension such as
// "md.str". Rendering runs the innermost stage ("str") against the scope,
// locals and yield, then feeds each output to the next stage as its source.
// stageOptions supplies extra options per stage extension.
func (r *Registry) RegisterPipeline(ext string, stageOptions map[string]Options) (*EngineType, error) {
	normalized, err := normalizeExtensions([]string{ext})
	if err != nil {
		return nil, err
	}
	full := normalized[0]

	parts := strings.Split(full, ExtensionSeparator)
	if len(parts) < 2 {
		return nil, NewConfigError(ErrMsgInvalidPipeline).WithMetadata(MetaKeyExtension, full)
	}

	stages := make([]pipelineStage, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		engine, err := r.Resolve(part)
		if err != nil {
			return nil, err
		}
		if engine == nil {
			return nil, NewConfigError(ErrMsgPipelineStage).WithMetadata(MetaKeyExtension, part)
		}
		stages = append(stages, pipelineStage{ext: part, engine: engine, options: stageOptions[part]})
	}

	last := stages[len(stages)-1].engine
	engine := NewEngineType(
		fmt.Sprintf(FmtPipelineName, PipelineNamePrefix, full),
		KindCompiling,
		Metadata{MimeType: last.metadata.MimeType},
		func() Processor { return &pipelineProcessor{stages: stages} },
	)
	if err := r.Register(engine, full); err != nil {
		return nil, err
	}
	return engine, nil
}

// pipelineProcessor chains stage templates. The first stage is built once from
// the pipeline's own source; later stages are built per render from the
// previous stage's output.
type pipelineProcessor struct {
	stages []pipelineStage
	owner  *Template
	first  *Template
}

func (p *pipelineProcessor) stageOptions(stage pipelineStage) Options {
	merged := p.owner.Options()
	// Stage sources are already decoded.
	delete(merged, OptionDefaultEncoding)
	for k, v := range stage.options {
		merged[k] = v
	}
	return merged
}

func (p *pipelineProcessor) Prepare(t *Template) error {
	p.owner = t
	first, err := NewTemplate(p.stages[0].engine,
		WithFile(t.File()),
		WithLine(t.Line()),
		WithOptions(p.stageOptions(p.stages[0])),
		WithSource(t.Data()),
		WithTemplateLogger(t.Logger()),
	)
	if err != nil {
		return err
	}
	p.first = first
	return nil
}

func (p *pipelineProcessor) Compile(shape Shape) (Renderer, error) {
	return RenderFunc(func(ctx context.Context, scope any, locals map[string]any, yield YieldFunc) (string, error) {
		out, err := p.first.Render(ctx, scope, locals, yield)
		if err != nil {
			return "", err
		}
		for _, stage := range p.stages[1:] {
			next, err := NewTemplate(stage.engine,
				WithFile(p.owner.File()),
				WithLine(p.owner.Line()),
				WithOptions(p.stageOptions(stage)),
				WithSource(out),
				WithTemplateLogger(p.owner.Logger()),
			)
			if err != nil {
				return "", err
			}
			if out, err = next.Render(ctx, scope, locals, yield); err != nil {
				return "", err
			}
			p.owner.Logger().Debug(LogMsgPipelineStage, zap.String(LogFieldStage, stage.ext))
		}
		return out, nil
	}), nil
}
