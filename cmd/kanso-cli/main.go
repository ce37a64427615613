// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"kanso/internal/errors"
	"kanso/internal/pipeline"
)

func main() {
	var (
		dumpHIR string
		output  string
		noColor bool
	)
	flag.StringVar(&dumpHIR, "dump-hir", "", "comma-separated pass names to dump HIR after (resolve,match,typecheck,dropcheck,corolower)")
	flag.StringVar(&output, "o", "", "write the requested HIR dumps to this file instead of stdout")
	flag.BoolVar(&noColor, "no-color", false, "disable colored diagnostic output")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: kanso-cli [flags] <file.ka>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	path := flag.Arg(0)

	cfg, err := pipeline.LoadConfig("kanso.yaml")
	if err != nil {
		color.Red("failed to read kanso.yaml: %s", err)
		os.Exit(1)
	}
	if output == "" {
		output = cfg.Output
	}
	if !noColor {
		noColor = cfg.NoColor
	}
	dumpStages := cfg.DumpHIR
	if dumpHIR != "" {
		dumpStages = strings.Split(dumpHIR, ",")
	}

	color.NoColor = noColor

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		os.Exit(1)
	}

	res := pipeline.Run(path, string(source), dumpStages)
	if !res.OK() {
		reporter := errors.NewErrorReporter(path, string(source))
		for _, diag := range res.Diagnostics {
			fmt.Println(reporter.FormatError(diag))
		}
		color.Red("failed at %s (%d diagnostic(s))", res.Stage, len(res.Diagnostics))
		os.Exit(1)
	}

	var dump strings.Builder
	for _, stage := range dumpStages {
		snap, ok := res.Snapshots[stage]
		if !ok {
			continue
		}
		fmt.Fprintf(&dump, "// --- %s ---\n%s\n", stage, snap)
	}
	if dump.Len() > 0 {
		if output != "" {
			if err := os.WriteFile(output, []byte(dump.String()), 0644); err != nil {
				color.Red("failed to write %s: %s", output, err)
				os.Exit(1)
			}
		} else {
			fmt.Print(dump.String())
		}
	}

	color.Green("compiled %s", path)
}
