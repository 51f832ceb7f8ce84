package workload

import "math/rand"

type GenerateOptions struct {
	// Ops is the number of operations to emit.
	Ops  int
	Seed int64
	// MaxSize bounds each allocation request.
	MaxSize int64
	// FreeRatio is the chance that an operation frees a live process.
	FreeRatio float64
	// CheckpointEvery inserts a checkpoint after that many operations. Zero disables them.
	CheckpointEvery int
}

func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Ops:             1000,
		Seed:            1,
		MaxSize:         64,
		FreeRatio:       0.4,
		CheckpointEvery: 100,
	}
}

// Generate returns a deterministic random trace. Every free names a process allocated
// earlier and not yet freed; pids are never reused.
func Generate(opts GenerateOptions) []Op {
	rng := rand.New(rand.NewSource(opts.Seed))
	maxSize := max(opts.MaxSize, 1)
	ops := make([]Op, 0, opts.Ops)
	var live []int
	nextPID := 1

	for i := 0; i < opts.Ops; i++ {
		if opts.CheckpointEvery > 0 && i > 0 && i%opts.CheckpointEvery == 0 {
			ops = append(ops, Op{Kind: Checkpoint})
		}
		if len(live) > 0 && rng.Float64() < opts.FreeRatio {
			j := rng.Intn(len(live))
			ops = append(ops, Op{Kind: Free, PID: live[j]})
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}
		ops = append(ops, Op{Kind: Alloc, PID: nextPID, Size: 1 + rng.Int63n(maxSize)})
		live = append(live, nextPID)
		nextPID++
	}
	return ops
}
