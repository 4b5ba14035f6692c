package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastmoviemaker/fmm/internal/export"
	"github.com/fastmoviemaker/fmm/internal/model"
)

// ExportResult is the finished payload of an export job.
type ExportResult struct {
	OutputPath string
}

// StartExport renders the project in the background. The project value must
// not be mutated while the job runs; callers pass a Copy to stay safe under
// the single-writer rule.
func StartExport(exporter *export.Exporter, p *model.ProjectState, job export.Job, logger *zap.SugaredLogger) *Handle {
	return start("export", logger, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		err := exporter.Run(ctx, p, job, func(currentMs, totalMs int64) {
			emit(currentMs, totalMs, "")
		})
		if err != nil {
			return nil, err
		}
		return ExportResult{OutputPath: job.OutputPath}, nil
	})
}

// StartBatchExport renders jobs sequentially, reporting aggregate progress
// in permille so the channel stays integer-typed.
func StartBatchExport(exporter *export.Exporter, items []export.BatchItem, logger *zap.SugaredLogger) *Handle {
	return start("batch-export", logger, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		err := exporter.RunBatch(ctx, items, func(p export.BatchProgress) {
			emit(int64(p.Aggregate*1000), 1000, p.Label())
		})
		if err != nil {
			return nil, err
		}
		outputs := make([]string, len(items))
		for i, item := range items {
			outputs[i] = item.Job.OutputPath
		}
		return outputs, nil
	})
}
