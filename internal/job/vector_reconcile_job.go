package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type OrphanSweeper interface {
	ListOrphans(ctx context.Context, limit int) ([]string, error)
	Delete(ctx context.Context, vectorIDs []string) error
}

// VectorReconcileJob removes index entries whose chunk row is gone.
// Document deletion removes vectors first, so orphans only appear when
// that ordering was interrupted mid-way.
type VectorReconcileJob struct {
	idx       OrphanSweeper
	batchSize int
}

func NewVectorReconcileJob(idx OrphanSweeper, batchSize int) *VectorReconcileJob {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &VectorReconcileJob{idx: idx, batchSize: batchSize}
}

func (j *VectorReconcileJob) Name() string {
	return "vector_reconcile"
}

func (j *VectorReconcileJob) Run(ctx context.Context) error {
	total := 0
	for {
		orphans, err := j.idx.ListOrphans(ctx, j.batchSize)
		if err != nil {
			return err
		}
		if len(orphans) == 0 {
			break
		}
		if err := j.idx.Delete(ctx, orphans); err != nil {
			return err
		}
		total += len(orphans)
		if len(orphans) < j.batchSize {
			break
		}
	}
	if total > 0 {
		logutil.GetLogger(ctx).Info("removed orphaned vectors", zap.Int("count", total))
	}
	return nil
}
