package main

import (
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/garethgeorge/memsim/internal/workload"
)

// genCommand writes a random trace.
type genCommand struct {
	logger          func() log.Logger
	out             *string
	ops             *int
	seed            *int64
	maxSize         *int64
	freeRatio       *float64
	checkpointEvery *int
}

func (cmd *genCommand) run(c *kingpin.ParseContext) error {
	ops := workload.Generate(workload.GenerateOptions{
		Ops:             *cmd.ops,
		Seed:            *cmd.seed,
		MaxSize:         *cmd.maxSize,
		FreeRatio:       *cmd.freeRatio,
		CheckpointEvery: *cmd.checkpointEvery,
	})
	if err := workload.WriteFile(*cmd.out, ops); err != nil {
		exitWithErr(fmt.Errorf("failed to write trace: %w", err))
	}
	level.Info(cmd.logger()).Log("msg", "wrote trace", "file", *cmd.out, "ops", len(ops))
	return nil
}

func addGenCommand(app *kingpin.Application, logger func() log.Logger) {
	defaults := workload.DefaultGenerateOptions()
	cmd := &genCommand{logger: logger}
	gen := app.Command("gen", "Write a random trace. Names ending in .zst are compressed.").Action(cmd.run)
	cmd.ops = gen.Flag("ops", "Number of operations.").Default(fmt.Sprint(defaults.Ops)).Int()
	cmd.seed = gen.Flag("seed", "Random seed.").Default(fmt.Sprint(defaults.Seed)).Int64()
	cmd.maxSize = gen.Flag("max-size", "Largest allocation request.").Default(fmt.Sprint(defaults.MaxSize)).Int64()
	cmd.freeRatio = gen.Flag("free-ratio", "Chance that an operation frees a live process.").Default(fmt.Sprint(defaults.FreeRatio)).Float64()
	cmd.checkpointEvery = gen.Flag("checkpoint-every", "Operations between checkpoints, 0 for none.").Default(fmt.Sprint(defaults.CheckpointEvery)).Int()
	cmd.out = gen.Arg("out", "The trace file to write.").Required().String()
}
