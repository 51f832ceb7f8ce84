package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

func main() {
	app := kingpin.New("memsim", "Replay allocation traces against a simulated address space.")
	verbose := app.Flag("verbose", "Log every allocation and free.").Short('v').Bool()

	logger := func() log.Logger {
		l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		if *verbose {
			return level.NewFilter(l, level.AllowDebug())
		}
		return level.NewFilter(l, level.AllowInfo())
	}

	addRunCommand(app, logger)
	addCompareCommand(app, logger)
	addGenCommand(app, logger)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}

func exitWithErr(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
