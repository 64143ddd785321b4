package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
)

// TractTransformer implements Transformer. Structured records become one
// tract directly; free-text records go through the external description
// parser when one is configured.
type TractTransformer struct {
	parser domain.DescriptionParser
	logger *slog.Logger
}

// NewTransformer creates a TractTransformer. Pass a nil parser to reject
// free-text records.
func NewTransformer(parser domain.DescriptionParser, logger *slog.Logger) *TractTransformer {
	return &TractTransformer{
		parser: parser,
		logger: logger,
	}
}

func (t *TractTransformer) Transform(ctx context.Context, raw domain.RawEvent) ([]domain.ParsedTract, error) {
	var rec domain.RawTractRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return nil, fmt.Errorf("decode tract record: %w", err)
	}

	if rec.Twp != "" || rec.Rge != "" {
		tract, err := structuredTract(rec)
		if err != nil {
			return nil, err
		}
		return []domain.ParsedTract{tract}, nil
	}

	if rec.Text != "" {
		if t.parser == nil {
			return nil, errors.New("free-text record received but no description parser is configured")
		}
		tracts, err := t.parser.ParseDescription(ctx, rec.Text)
		if err != nil {
			return nil, fmt.Errorf("parse description: %w", err)
		}
		if len(tracts) == 0 {
			t.logger.Warn("description parsed to no tracts", "text", rec.Text)
		}
		return tracts, nil
	}

	return nil, errors.New("tract record has neither structured fields nor text")
}

func structuredTract(rec domain.RawTractRecord) (domain.ParsedTract, error) {
	tr, err := domain.ParseTwpRgeParts(rec.Twp, rec.Rge)
	if err != nil {
		return domain.ParsedTract{}, err
	}
	if !domain.ValidSection(rec.Sec) {
		return domain.ParsedTract{}, fmt.Errorf("invalid section %d", rec.Sec)
	}
	if len(rec.Aliquots) == 0 && len(rec.Lots) == 0 {
		return domain.ParsedTract{}, errors.New("tract record has no aliquots or lots")
	}
	return domain.ParsedTract{
		TwpRge:   tr,
		Sec:      rec.Sec,
		Aliquots: rec.Aliquots,
		Lots:     rec.Lots,
		Desc:     rec.Desc,
	}, nil
}
