// Command vmdemo is a thin driver exercising the assembler end to end: it
// compiles an iterative and a recursive factorial procedure and prints
// their result for a command-line argument. It is the one place in this
// module that turns a library error into a process exit code.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Spivoxity/thunder/armsim"
	"github.com/Spivoxity/thunder/vmasm"
	"github.com/Spivoxity/thunder/vmconfig"
	"github.com/Spivoxity/thunder/vmop"
	"github.com/Spivoxity/thunder/vreg"
)

// Version information, overridable at build time:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		debugLevel  = flag.Int("debug", 0, "Generator debug verbosity (0-5)")
		nArg        = flag.Int("n", 10, "Compute n factorial")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("vmdemo %s (commit %s, built %s)\n", Version, Commit, Date)
		return
	}

	cfg, err := vmconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "vmdemo: loading config:", err)
		os.Exit(2)
	}
	if *debugLevel != 0 {
		cfg.Debug.Level = *debugLevel
	}

	asm := vmasm.New(cfg.Codegen.Protection.Mode(), cfg.Codegen.MaxLiterals)
	asm.SetDebug(cfg.Debug.Level)

	iterEntry, iterCode, err := compileIterativeFactorial(asm)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vmdemo: compiling iterative factorial:", err)
		os.Exit(2)
	}
	recEntry, recCode, err := compileRecursiveFactorial(asm)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vmdemo: compiling recursive factorial:", err)
		os.Exit(2)
	}

	n := int32(*nArg)

	iterResult, err := runFactorial(iterEntry, iterCode, n)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vmdemo: running iterative factorial:", err)
		os.Exit(2)
	}
	fmt.Printf("The factorial of %d is %d\n", n, iterResult)

	recResult, err := runFactorial(recEntry, recCode, n)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vmdemo: running recursive factorial:", err)
		os.Exit(2)
	}
	fmt.Printf("The factorial of %d is %d\n", n, recResult)
}

// compileIterativeFactorial is the Go translation of fact.c's compile():
// a countdown loop multiplying into V1, returning it.
func compileIterativeFactorial(asm *vmasm.Assembler) (entry uintptr, code []byte, err error) {
	entry, err = asm.Begin("fact_iter", 1, 0)
	if err != nil {
		return 0, nil, err
	}

	v0, v1 := vreg.V0, vreg.V1
	top := asm.NewLabel()
	done := asm.NewLabel()

	if err := asm.Gen2RegImm(vmop.GETARG, v0, 0); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen2RegImm(vmop.MOV, v1, 1); err != nil {
		return 0, nil, err
	}
	if err := asm.BindLabel(top); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen3RegImmLabel(vmop.BEQImm, v0, 0, done); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen3RegRegReg(vmop.MUL, v1, v1, v0); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen3RegRegImm(vmop.SUBImm, v0, v0, 1); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen1Label(vmop.JUMP, top); err != nil {
		return 0, nil, err
	}
	if err := asm.BindLabel(done); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen2RegReg(vmop.MOV, vreg.RET, v1); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen0(vmop.RET); err != nil {
		return 0, nil, err
	}

	if err := asm.End(); err != nil {
		return 0, nil, err
	}
	code, err = captureBody(asm, entry, asm.CurrentWrite())
	if err != nil {
		return 0, nil, err
	}
	return entry, code, nil
}

// compileRecursiveFactorial is the Go translation of fact.c's compile2():
// a self-call via the entry address captured from the same Begin, the
// protocol's PREP/ARG/CALL argument marshaling in action.
func compileRecursiveFactorial(asm *vmasm.Assembler) (entry uintptr, code []byte, err error) {
	entry, err = asm.Begin("fact_rec", 1, 0)
	if err != nil {
		return 0, nil, err
	}

	v0, v1 := vreg.V0, vreg.V1
	recurse := asm.NewLabel()
	ret := asm.NewLabel()

	if err := asm.Gen2RegImm(vmop.GETARG, v0, 0); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen3RegImmLabel(vmop.BNEQImm, v0, 0, recurse); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen2RegImm(vmop.MOV, vreg.RET, 1); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen1Label(vmop.JUMP, ret); err != nil {
		return 0, nil, err
	}

	if err := asm.BindLabel(recurse); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen3RegRegImm(vmop.SUBImm, v1, v0, 1); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen1Imm(vmop.PREP, 1); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen1Reg(vmop.ARG, v1); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen1Imm(vmop.CALLImm, int32(entry)); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen3RegRegReg(vmop.MUL, vreg.RET, v0, vreg.RET); err != nil {
		return 0, nil, err
	}

	if err := asm.BindLabel(ret); err != nil {
		return 0, nil, err
	}
	if err := asm.Gen0(vmop.RET); err != nil {
		return 0, nil, err
	}

	if err := asm.End(); err != nil {
		return 0, nil, err
	}
	code, err = captureBody(asm, entry, asm.CurrentWrite())
	if err != nil {
		return 0, nil, err
	}
	return entry, code, nil
}

// captureBody reads out a finished procedure's bytes for simulation,
// including the 4-byte literal-pool header Begin reserves immediately
// before entry. end is the write pointer after End, so the copy also
// covers the literal pool End appended after the body -- the recursive
// variant's CALL loads its own entry address from that pool.
func captureBody(asm *vmasm.Assembler, entry, end uintptr) ([]byte, error) {
	const headerSize = 4
	size := int(end-entry) + headerSize
	return asm.ReadCode(entry-headerSize, size)
}

// runFactorial loads a compiled procedure's bytes into a flat memory image
// and interprets it with armsim, standing in for real ARM hardware.
func runFactorial(entry uintptr, code []byte, n int32) (int32, error) {
	const stackSize = 4096
	const haltMarker = 0xdeadbeef
	const headerSize = 4

	base := uint32(entry) - headerSize
	image := make([]byte, len(code)+stackSize)
	copy(image, code)
	mem := armsim.NewMemory(base, image)

	cpu := armsim.NewCPU()
	cpu.R[0] = uint32(n)
	cpu.R[13] = base + uint32(len(code)) + stackSize - 16 // SP, well clear of code
	cpu.R[14] = haltMarker                                // LR: sentinel return address

	if err := armsim.Run(mem, cpu, uint32(entry), haltMarker, 100000); err != nil {
		return 0, err
	}
	return int32(cpu.R[0]), nil
}
