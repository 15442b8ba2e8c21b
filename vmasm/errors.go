package vmasm

import (
	"errors"
	"fmt"

	"github.com/Spivoxity/thunder/vmop"
)

// ErrProcedureOpen is returned by Begin when a procedure is already open.
var ErrProcedureOpen = errors.New("vmasm: procedure already open")

// ErrNoProcedure is returned by any Gen* call or End made outside Begin/End.
var ErrNoProcedure = errors.New("vmasm: no procedure open")

// ErrUnboundLabel is returned by End when a label created since Begin was
// never bound.
var ErrUnboundLabel = errors.New("vmasm: unbound label referenced at End")

// ErrTooManyArgs is returned by PREP for n outside 0..3.
var ErrTooManyArgs = errors.New("vmasm: too many arguments (max 3)")

// ErrPendingArgs is returned by CALL when argp has not been drained to 0.
var ErrPendingArgs = errors.New("vmasm: call issued with pending ARG operands")

// ErrUnknownOp is returned by a dispatcher method when the opcode does not
// belong to the arity family it was called through, in place of exiting
// the process.
type ErrUnknownOp struct {
	Op    vmop.Op
	Arity vmop.Arity
}

func (e *ErrUnknownOp) Error() string {
	return fmt.Sprintf("vmasm: opcode %s not valid for arity %d", e.Op.Mnemonic, e.Arity)
}

// GenError wraps any error raised while generating one virtual instruction,
// carrying enough context for a debug build to report the mnemonic and
// operand kinds involved -- the Go analogue of encoder.EncodingError for
// the virtual-opcode layer.
type GenError struct {
	Op       vmop.Op
	Operands []string
	Err      error
}

func (e *GenError) Error() string {
	return fmt.Sprintf("vmasm: %s %v: %s", e.Op.Mnemonic, e.Operands, e.Err)
}

func (e *GenError) Unwrap() error { return e.Err }

func genErr(op vmop.Op, err error, operands ...string) error {
	if err == nil {
		return nil
	}
	return &GenError{Op: op, Operands: operands, Err: err}
}
