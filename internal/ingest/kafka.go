package ingest

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"skimguard/internal/config"
	"skimguard/internal/pipeline"
	"skimguard/internal/scan"
)

// StartKafka consumes JSON scan batches published by field scanners
// and runs them through the same pipeline as the HTTP ingest path.
// Messages may carry either a batch array or a single scan object.
func StartKafka(ctx context.Context, cfg *config.Manager, p *pipeline.Pipeline, logger *slog.Logger) {
	current := cfg.Get().Ingest.Kafka
	if !current.Enabled {
		if logger != nil {
			logger.Info("kafka ingest disabled")
		}
		return
	}
	if logger != nil {
		logger.Info("kafka ingest enabled", "brokers", current.Brokers, "topic", current.Topic, "group_id", current.GroupID)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  current.Brokers,
		Topic:    current.Topic,
		GroupID:  current.GroupID,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	go func() {
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if logger != nil {
					logger.Warn("kafka read error", "err", err)
				}
				continue
			}
			batch, err := decodeBatch(m.Value)
			if err != nil {
				if logger != nil {
					logger.Warn("kafka message decode error", "err", err)
				}
				continue
			}
			if _, err := p.Process(ctx, batch); err != nil {
				if logger != nil {
					logger.Warn("kafka batch rejected", "err", err)
				}
			}
		}
	}()
}

func decodeBatch(value []byte) ([]scan.RawScan, error) {
	trimmed := trimSpace(value)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var batch []scan.RawScan
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
	var single scan.RawScan
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []scan.RawScan{single}, nil
}

func trimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && (b[start] == ' ' || b[start] == '\n' || b[start] == '\r' || b[start] == '\t') {
		start++
	}
	end := len(b)
	for end > start && (b[end-1] == ' ' || b[end-1] == '\n' || b[end-1] == '\r' || b[end-1] == '\t') {
		end--
	}
	return b[start:end]
}
