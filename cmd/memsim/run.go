package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/garethgeorge/memsim/internal/memsim"
	"github.com/garethgeorge/memsim/internal/workload"
)

// runCommand replays a trace with a single placement policy.
type runCommand struct {
	logger func() log.Logger
	trace  *string
	memory *int64
	policy *string
	dump   *bool
}

func (cmd *runCommand) run(c *kingpin.ParseContext) error {
	policy, err := memsim.ParsePolicy(*cmd.policy)
	if err != nil {
		return err
	}
	logger := cmd.logger()
	ops, err := workload.ReadFile(*cmd.trace)
	if err != nil {
		exitWithErr(fmt.Errorf("failed to read trace: %w", err))
	}
	level.Info(logger).Log("msg", "replaying trace", "file", *cmd.trace, "ops", len(ops), "policy", policy)

	sim, err := memsim.New(memsim.Config{MemorySize: *cmd.memory, Policy: policy, Logger: logger})
	if err != nil {
		exitWithErr(err)
	}
	report, err := workload.Run(context.Background(), sim, ops)
	if err != nil {
		exitWithErr(fmt.Errorf("failed to replay trace: %w", err))
	}
	printReport(report)
	if *cmd.dump {
		if err := sim.Print(os.Stdout); err != nil {
			exitWithErr(err)
		}
	}
	return nil
}

func printReport(r workload.Report) {
	fmt.Printf("policy: %v\n", r.Policy)
	fmt.Printf("\tallocations: %d (%d failed)\n", r.Allocations, r.FailedAllocations)
	fmt.Printf("\tfrees: %d (%d unknown)\n", r.Frees, r.FailedFrees)
	fmt.Printf("\tallocated: %s of %s\n", humanize.Comma(r.Final.AllocatedSpace), humanize.Comma(r.Final.MemorySize))
	fmt.Printf("\tfree blocks: %d, largest: %s, fragmentation: %.1f%%\n",
		r.Final.FreeBlocks, humanize.Comma(r.Final.LargestFree), r.Final.Fragmentation())
	for i, d := range r.Checkpoints {
		fmt.Printf("\tcheckpoint %d: %016x\n", i, d)
	}
	fmt.Printf("\tdigest: %016x\n", r.Digest)
}

func addRunCommand(app *kingpin.Application, logger func() log.Logger) {
	cmd := &runCommand{logger: logger}
	run := app.Command("run", "Replay a trace with one placement policy.").Action(cmd.run)
	cmd.memory = run.Flag("memory", "Size of the address space.").Default(fmt.Sprint(memsim.DefaultMemorySize)).Int64()
	cmd.policy = run.Flag("policy", "Placement policy: first, best or worst.").Default(memsim.FirstFit.String()).String()
	cmd.dump = run.Flag("dump", "Print the final free and allocated lists.").Bool()
	cmd.trace = run.Arg("trace", "The trace file to replay.").Required().ExistingFile()
}
