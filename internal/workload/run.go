package workload

import (
	"context"
	"errors"
	"fmt"

	"github.com/garethgeorge/memsim/internal/memsim"
)

// Report summarizes one trace replay.
type Report struct {
	Policy            memsim.Policy
	Allocations       int
	FailedAllocations int
	Frees             int
	FailedFrees       int
	// Checkpoints holds the simulator digest at each checkpoint operation.
	Checkpoints []uint64
	Final       memsim.Stats
	Digest      uint64
}

// Run replays ops against sim. Requests the simulator cannot satisfy are counted in the
// report rather than failing the run.
func Run(ctx context.Context, sim *memsim.Simulator, ops []Op) (Report, error) {
	report := Report{Policy: sim.Policy()}
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		switch op.Kind {
		case Alloc:
			_, err := sim.Allocate(op.PID, op.Size)
			switch {
			case err == nil:
				report.Allocations++
			case errors.Is(err, memsim.ErrNoMemory):
				report.FailedAllocations++
			default:
				return report, fmt.Errorf("op %d (%v): %w", i, op, err)
			}
		case Free:
			_, err := sim.Free(op.PID)
			switch {
			case err == nil:
				report.Frees++
			case errors.Is(err, memsim.ErrUnknownPID):
				report.FailedFrees++
			default:
				return report, fmt.Errorf("op %d (%v): %w", i, op, err)
			}
		case Checkpoint:
			report.Checkpoints = append(report.Checkpoints, sim.Digest())
		default:
			return report, fmt.Errorf("op %d: unknown operation %c", i, op.Kind)
		}
	}
	report.Final = sim.Stats()
	report.Digest = sim.Digest()
	return report, nil
}
