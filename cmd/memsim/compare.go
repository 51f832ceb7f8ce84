package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"golang.org/x/sync/errgroup"

	"github.com/garethgeorge/memsim/internal/memsim"
	"github.com/garethgeorge/memsim/internal/workload"
)

// compareCommand replays one trace under every policy. Each policy gets its own
// simulator, so the runs share nothing but the parsed trace.
type compareCommand struct {
	logger func() log.Logger
	trace  *string
	memory *int64
}

func (cmd *compareCommand) run(c *kingpin.ParseContext) error {
	ops, err := workload.ReadFile(*cmd.trace)
	if err != nil {
		exitWithErr(fmt.Errorf("failed to read trace: %w", err))
	}
	reports, err := comparePolicies(context.Background(), cmd.logger(), *cmd.memory, ops)
	if err != nil {
		exitWithErr(err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POLICY\tALLOCS\tFAILED\tALLOCATED\tFREE BLOCKS\tLARGEST FREE\tFRAGMENTATION")
	for _, r := range reports {
		fmt.Fprintf(tw, "%v\t%d\t%d\t%s\t%d\t%s\t%.1f%%\n",
			r.Policy, r.Allocations, r.FailedAllocations,
			humanize.Comma(r.Final.AllocatedSpace), r.Final.FreeBlocks,
			humanize.Comma(r.Final.LargestFree), r.Final.Fragmentation())
	}
	return tw.Flush()
}

// comparePolicies returns one report per policy, in memsim.Policies order.
func comparePolicies(ctx context.Context, logger log.Logger, memory int64, ops []workload.Op) ([]workload.Report, error) {
	reports := make([]workload.Report, len(memsim.Policies))
	g, ctx := errgroup.WithContext(ctx)
	for i, policy := range memsim.Policies {
		g.Go(func() error {
			sim, err := memsim.New(memsim.Config{MemorySize: memory, Policy: policy, Logger: logger})
			if err != nil {
				return err
			}
			report, err := workload.Run(ctx, sim, ops)
			if err != nil {
				return fmt.Errorf("policy %v: %w", policy, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func addCompareCommand(app *kingpin.Application, logger func() log.Logger) {
	cmd := &compareCommand{logger: logger}
	compare := app.Command("compare", "Replay a trace with every placement policy.").Action(cmd.run)
	cmd.memory = compare.Flag("memory", "Size of the address space.").Default(fmt.Sprint(memsim.DefaultMemorySize)).Int64()
	cmd.trace = compare.Arg("trace", "The trace file to replay.").Required().ExistingFile()
}
