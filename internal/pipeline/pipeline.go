package pipeline

import (
	"context"
	"log/slog"

	"skimguard/internal/geoloc"
	"skimguard/internal/model"
	"skimguard/internal/recon"
	"skimguard/internal/scan"
)

// Pipeline runs one raw batch through validation, geolocation, and
// reconciliation. Both the HTTP ingest path and the kafka consumer go
// through here so the two entry points cannot drift.
type Pipeline struct {
	engine   *recon.Engine
	selector *geoloc.Selector
	latest   *geoloc.Latest
	logger   *slog.Logger
}

func New(engine *recon.Engine, selector *geoloc.Selector, latest *geoloc.Latest, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		engine:   engine,
		selector: selector,
		latest:   latest,
		logger:   logger,
	}
}

// Process validates the batch, refreshes the shared location estimate,
// and reconciles risk. Geolocation runs before reconciliation and is
// independent of its outcome; a reconciliation failure still leaves
// the estimate updated.
func (p *Pipeline) Process(ctx context.Context, raw []scan.RawScan) ([]model.DeviceRisk, error) {
	scans, err := scan.Validate(raw)
	if err != nil {
		return nil, err
	}
	estimate := p.selector.Locate(ctx, scans)
	p.latest.Set(estimate)
	risks, err := p.engine.Reconcile(ctx, scans)
	if err != nil {
		return nil, err
	}
	if p.logger != nil {
		p.logger.Info("batch reconciled", "scans", len(scans), "detections", len(risks))
	}
	return risks, nil
}
