package engine

import (
	"context"
	"log/slog"
)

// Worker processes claimed runs from the queue until the context is cancelled.
func Worker(ctx context.Context, id int, executor *ChainExecutor, runQueue <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case runID := <-runQueue:
			slog.Info("Worker starting run", "worker_id", id, "run_id", runID)
			if _, err := executor.ExecuteRun(ctx, runID); err != nil {
				slog.Error("Worker run failed", "worker_id", id, "run_id", runID, "error", err)
			}
			slog.Info("Worker finished run", "worker_id", id, "run_id", runID)
		}
	}
}
