package export

import (
	"context"
	"fmt"

	"github.com/fastmoviemaker/fmm/internal/model"
)

// BatchProgress reports one batch tick: the running job, its own progress,
// and the aggregate share of the whole batch in [0, 1].
type BatchProgress struct {
	JobIndex  int
	JobCount  int
	CurrentMs int64
	TotalMs   int64
	Aggregate float64
}

// Label renders "job 2/5" for progress displays.
func (p BatchProgress) Label() string {
	return fmt.Sprintf("job %d/%d", p.JobIndex+1, p.JobCount)
}

// RunBatch renders jobs sequentially. FFmpeg saturates the machine on its
// own, so batches never run jobs in parallel. The first failure stops the
// batch; completed outputs stay on disk.
func (e *Exporter) RunBatch(
	ctx context.Context,
	jobs []BatchItem,
	onProgress func(BatchProgress),
) error {
	n := len(jobs)
	for i, item := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		jobIdx := i
		err := e.Run(ctx, item.Project, item.Job, func(currentMs, totalMs int64) {
			if onProgress == nil {
				return
			}
			frac := 0.0
			if totalMs > 0 {
				frac = float64(currentMs) / float64(totalMs)
				if frac > 1 {
					frac = 1
				}
			}
			onProgress(BatchProgress{
				JobIndex:  jobIdx,
				JobCount:  n,
				CurrentMs: currentMs,
				TotalMs:   totalMs,
				Aggregate: (float64(jobIdx) + frac) / float64(n),
			})
		})
		if err != nil {
			return fmt.Errorf("batch job %d (%s): %w", i, item.Job.OutputPath, err)
		}
	}
	return nil
}

// BatchItem pairs a project with its output descriptor. Batch exports
// typically reuse one project across several presets.
type BatchItem struct {
	Project *model.ProjectState
	Job     Job
}
