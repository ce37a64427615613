// Package pipeline drives a source file through every middle-end pass in
// order and reports where it stopped. It is the ambient task-runner layer
// cmd/kanso-cli sits on top of: each stage runs to completion, its
// diagnostics are checked, and the run stops at the first stage that
// reports any (every later pass assumes the HIR it receives already
// survived the ones before it, mirroring the teacher's own
// declare-then-check staging in internal/semantic/analyzer.go).
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kanso/internal/ast"
	"kanso/internal/corolower"
	"kanso/internal/dropcheck"
	"kanso/internal/errors"
	"kanso/internal/hir"
	"kanso/internal/match"
	"kanso/internal/parser"
	"kanso/internal/resolve"
	"kanso/internal/typecheck"
	"kanso/internal/unify"
)

// Stage names recognized by -dump-hir and kanso.yaml's dump_hir list, in
// pipeline order.
const (
	StageParse     = "parse"
	StageResolve   = "resolve"
	StageMatch     = "match"
	StageTypecheck = "typecheck"
	StageDropcheck = "dropcheck"
	StageCorolower = "corolower"
)

// Config is the subset of kanso.yaml a build reads before CLI flags are
// applied. CLI flags always win over a value the file sets; see
// cmd/kanso-cli, which merges the two.
type Config struct {
	DumpHIR []string `yaml:"dump_hir"`
	Output  string   `yaml:"output"`
	NoColor bool     `yaml:"no_color"`
}

// LoadConfig reads kanso.yaml from path if present. A missing file is not
// an error; callers run with a zero Config in that case.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Result carries the outcome of one run: the program as it stood at the
// point compilation stopped, any -dump-hir snapshots taken along the way,
// and the diagnostics (if any) that stopped it.
type Result struct {
	Program *hir.Program
	// Snapshots holds the textual HIR dump taken immediately after each
	// stage named in dumpStages, keyed by stage name.
	Snapshots map[string]string
	// Stage names which stage produced Diagnostics. Empty once the run
	// reaches the end of the pipeline clean.
	Stage       string
	Diagnostics []errors.CompilerError
}

// OK reports whether every stage ran without diagnostics.
func (r *Result) OK() bool { return len(r.Diagnostics) == 0 }

// Run parses filename/source and pushes it through resolve, match
// compilation, type checking, drop checking and coroutine lowering, in
// that order. dumpStages names which stages' post-state to snapshot into
// Result.Snapshots; pass nil to skip snapshotting entirely.
func Run(filename, source string, dumpStages []string) *Result {
	res := &Result{Snapshots: map[string]string{}}
	wantDump := make(map[string]bool, len(dumpStages))
	for _, s := range dumpStages {
		wantDump[s] = true
	}

	mod, parseErrs, scanErrs := parser.ParseSource(filename, source)
	if len(scanErrs) > 0 || len(parseErrs) > 0 {
		res.Stage = StageParse
		for _, e := range scanErrs {
			res.Diagnostics = append(res.Diagnostics, scanErrorToCompilerError(filename, e))
		}
		for _, e := range parseErrs {
			res.Diagnostics = append(res.Diagnostics, parseErrorToCompilerError(filename, e))
		}
		return res
	}

	prog, diags := resolve.ResolveModules([]*ast.Module{mod})
	res.Program = prog
	if len(diags) > 0 {
		res.Stage = StageResolve
		res.Diagnostics = diags
		return res
	}
	snapshot(res, wantDump, StageResolve, prog)

	matcher := match.NewCompiler(prog, unify.New())
	matcher.CompileProgram()
	if diags := matcher.Diagnostics(); len(diags) > 0 {
		res.Stage = StageMatch
		res.Diagnostics = diags
		return res
	}
	snapshot(res, wantDump, StageMatch, prog)

	checker := typecheck.New(prog)
	checker.CheckProgram()
	if diags := checker.Diagnostics(); len(diags) > 0 {
		res.Stage = StageTypecheck
		res.Diagnostics = diags
		return res
	}
	snapshot(res, wantDump, StageTypecheck, prog)

	dropper := dropcheck.New(prog)
	dropper.CheckProgram()
	if diags := dropper.Diagnostics(); len(diags) > 0 {
		res.Stage = StageDropcheck
		res.Diagnostics = diags
		return res
	}
	snapshot(res, wantDump, StageDropcheck, prog)

	corolower.New(prog).LowerProgram()
	snapshot(res, wantDump, StageCorolower, prog)

	return res
}

func snapshot(res *Result, wantDump map[string]bool, stage string, prog *hir.Program) {
	if wantDump[stage] {
		res.Snapshots[stage] = hir.Print(prog)
	}
}

func scanErrorToCompilerError(filename string, e parser.ScanError) errors.CompilerError {
	return errors.CompilerError{
		Level:    errors.Error,
		Code:     errors.ErrorScan,
		Message:  e.Message,
		Position: toASTPosition(filename, e.Position),
		Length:   e.Length,
	}
}

func parseErrorToCompilerError(filename string, e parser.ParseError) errors.CompilerError {
	return errors.CompilerError{
		Level:    errors.Error,
		Code:     errors.ErrorSyntax,
		Message:  e.Message,
		Position: toASTPosition(filename, e.Position),
		Length:   e.Length,
	}
}

func toASTPosition(filename string, p parser.Position) ast.Position {
	return ast.Position{Filename: filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
}
