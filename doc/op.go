package doc

import (
	"fmt"
	"strings"
)

// Ops are encoded as "i,<position>,<value>" and "d,<position>", in the
// spirit of the compact offset encodings collaborative editors ship
// over the wire, except positions are replica-stable identifiers
// rather than integer offsets.

type Op interface {
	Encode() string
}

// InsertOp places a single rune at a generated position.
type InsertOp struct {
	Pos   Position
	Value rune
}

func (op *InsertOp) Encode() string {
	return fmt.Sprintf("i,%s,%c", op.Pos.Encode(), op.Value)
}

// DeleteOp removes the atom at a position.
type DeleteOp struct {
	Pos Position
}

func (op *DeleteOp) Encode() string {
	return fmt.Sprintf("d,%s", op.Pos.Encode())
}

// DecodeOp parses a single encoded op.
func DecodeOp(s string) (Op, error) {
	switch {
	case strings.HasPrefix(s, "i,"):
		parts := strings.SplitN(s, ",", 3)
		if len(parts) < 3 || parts[2] == "" {
			return nil, fmt.Errorf("failed to parse op: %q", s)
		}
		pos, err := decodePosition(parts[1])
		if err != nil {
			return nil, err
		}
		value := []rune(parts[2])
		if len(value) != 1 {
			return nil, fmt.Errorf("insert op carries %d runes: %q", len(value), s)
		}
		return &InsertOp{Pos: pos, Value: value[0]}, nil
	case strings.HasPrefix(s, "d,"):
		pos, err := decodePosition(s[2:])
		if err != nil {
			return nil, err
		}
		return &DeleteOp{Pos: pos}, nil
	default:
		return nil, fmt.Errorf("unknown op type: %q", s)
	}
}

func EncodeOps(ops []Op) []string {
	strs := make([]string, len(ops))
	for i, op := range ops {
		strs[i] = op.Encode()
	}
	return strs
}

func DecodeOps(strs []string) ([]Op, error) {
	ops := make([]Op, len(strs))
	for i, s := range strs {
		op, err := DecodeOp(s)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}
