package vm

import (
	"ua/internal/array"
	"ua/internal/bytecode"
)

// RunMode selects which scoped blocks execute. Normal skips every block
// marked as a test; Test and All both run the whole assembly, including
// bindings that live outside test scopes and that test blocks rely on
// to exist — the difference between Test and All is purely at the
// driver/CLI layer (the `test` subcommand suppresses normal result
// printing and reports a pass/fail summary instead).
type RunMode int

const (
	ModeNormal RunMode = iota
	ModeTest
	ModeAll
)

// RunWithMode executes the assembly under the given mode.
func (v *VM) RunWithMode(mode RunMode) error {
	if mode == ModeNormal {
		return v.runSkippingTestBlocks()
	}
	return v.Run()
}

// runSkippingTestBlocks walks the code stream, jumping over any
// instruction range recorded as a test block rather than executing it.
func (v *VM) runSkippingTestBlocks() error {
	blocks := v.Assembly.TestBlocks
	end := len(v.Assembly.Code)
	pc := 0
	for pc < end {
		if instr := v.Assembly.Code[pc]; instr.Op.String() == "EndOfAssembly" {
			return nil
		}
		if start, length, ok := blockStartingAt(blocks, pc); ok {
			pc = start + length
			continue
		}
		if err := v.step(v.Assembly.Code[pc]); err != nil {
			return err
		}
		pc++
	}
	return nil
}

func blockStartingAt(blocks []bytecode.TestBlock, pc int) (start, length int, ok bool) {
	for _, b := range blocks {
		if b.Start == pc {
			return b.Start, b.Len, true
		}
	}
	return 0, 0, false
}

// TestBlockResult is one scoped test block's outcome: the code range it
// covered, any error raised while running it, and whatever it left on
// the stack before that residue was discarded.
type TestBlockResult struct {
	Start, Len int
	Err        error
	Residue    []array.Value
}

// RunReportingTests executes the whole assembly once, including every
// scoped test block, but measures each test block's net stack residue
// in isolation: the residue is discarded after each block so a failing
// or passing assertion never leaks into the surrounding program's stack
// layout. A block that errors stops at its own boundary and execution
// resumes at the next instruction after it; an error outside any test
// block still aborts the run, matching Normal-mode error propagation.
func (v *VM) RunReportingTests() ([]TestBlockResult, error) {
	blocks := v.Assembly.TestBlocks
	end := len(v.Assembly.Code)
	pc := 0
	var results []TestBlockResult
	for pc < end {
		instr := v.Assembly.Code[pc]
		if instr.Op == bytecode.EndOfAssembly {
			return results, nil
		}
		if start, length, ok := blockStartingAt(blocks, pc); ok {
			base := len(v.stack)
			runErr := v.execRange(start, start+length)
			residue := append([]array.Value{}, v.stack[base:]...)
			v.stack = v.stack[:base]
			results = append(results, TestBlockResult{Start: start, Len: length, Err: runErr, Residue: residue})
			pc = start + length
			continue
		}
		if err := v.step(instr); err != nil {
			return results, err
		}
		pc++
	}
	return results, nil
}
