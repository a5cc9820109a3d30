package workflow

import (
	"context"
	"log/slog"

	"dmhmr/internal/config"
	"dmhmr/internal/document"
	"dmhmr/internal/extract"
	"dmhmr/internal/logging"
	"dmhmr/internal/queue"
	"dmhmr/internal/services"
	"dmhmr/internal/template"
	"dmhmr/internal/validate"
)

// Pipeline runs one document through normalize -> extract -> validate and
// accepts the result into the submission queue. Pure per document; safe to
// run concurrently across independent files.
type Pipeline struct {
	cfg      *config.Config
	registry *template.Registry
	store    *queue.Store
	logger   *slog.Logger
}

// NewPipeline wires the extraction pipeline.
func NewPipeline(cfg *config.Config, registry *template.Registry, store *queue.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{cfg: cfg, registry: registry, store: store, logger: logger}
}

// Outcome reports one document's trip through the pipeline.
type Outcome struct {
	Source   string
	Template string
	Task     *queue.Task
	Record   *validate.Record
}

// Process parses one file. With templateName empty, the registry picks the
// best-fit template by match score. The validated record is queued when
// clean, stored as a draft when it still carries errors; either way the
// issues stay attached for review.
func (p *Pipeline) Process(ctx context.Context, path, templateName string, header validate.Header) (*Outcome, error) {
	ctx = services.WithStage(ctx, "parse")

	doc, err := document.Normalize(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "parse", "normalize", path, err)
	}

	var tpl *template.Template
	if templateName != "" {
		tpl, err = p.registry.Get(templateName)
	} else {
		tpl, err = p.registry.Match(doc)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "parse", "select template", path, err)
	}

	result := extract.Extract(doc, tpl)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("document extracted",
		logging.String(logging.FieldSourceFile, path),
		logging.String(logging.FieldTemplate, tpl.Name),
		logging.String("status", string(result.Status)),
	)

	rec, err := validate.Validate(ctx, result, tpl, header, validate.Options{
		DefaultTaxRate:  p.cfg.Records.DefaultTaxRate,
		TargetCurrency:  p.cfg.Records.DefaultCurrency,
		ConversionRates: p.cfg.Records.ConversionRates,
		Duplicates:      p.store,
	})
	if err != nil {
		return nil, err
	}

	task, err := p.store.Add(ctx, rec)
	if err != nil {
		return nil, err
	}

	if !rec.Submittable() {
		logger.Warn("record stored as draft",
			logging.String(logging.FieldSourceFile, path),
			logging.String(logging.FieldAssetID, rec.AssetID()),
			logging.Int("errors", len(rec.Errors())),
		)
	}

	return &Outcome{Source: path, Template: tpl.Name, Task: task, Record: rec}, nil
}
