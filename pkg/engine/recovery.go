package engine

import (
	"fmt"

	"github.com/sanonone/pbg/pkg/persistence"
)

// apply replays one graph log command against the store.
func (e *Engine) apply(cmd *persistence.Command) error {
	switch cmd.Name {
	case persistence.CmdVertex:
		if err := arity(cmd, 1); err != nil {
			return err
		}
		return e.store.AddVertex(cmd.Arg(0))

	case persistence.CmdEdge:
		if err := arity(cmd, 3); err != nil {
			return err
		}
		return e.store.AddEdge(cmd.Arg(0), cmd.Arg(1), cmd.Arg(2))

	case persistence.CmdRelation:
		if err := arity(cmd, 3); err != nil {
			return err
		}
		return e.store.AddRelation(cmd.Arg(0), cmd.Arg(1), cmd.Arg(2))

	case persistence.CmdProp:
		if err := arity(cmd, 3); err != nil {
			return err
		}
		return e.store.SetProperty(cmd.Arg(0), cmd.Arg(1), cmd.Arg(2))

	case persistence.CmdIndex:
		if err := arity(cmd, 3); err != nil {
			return err
		}
		return e.store.AddIndexedValue(cmd.Arg(0), cmd.Arg(1), cmd.Arg(2))

	case persistence.CmdFreeze:
		e.store.Freeze()
		return nil

	default:
		return fmt.Errorf("%w: unknown command %q", persistence.ErrInvalidCommand, cmd.Name)
	}
}

func arity(cmd *persistence.Command, n int) error {
	if len(cmd.Args) != n {
		return fmt.Errorf("%w: %s expects %d arguments, got %d",
			persistence.ErrInvalidCommand, cmd.Name, n, len(cmd.Args))
	}
	return nil
}
