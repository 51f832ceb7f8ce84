// Package workload reads, writes and generates allocation traces for the simulator.
package workload

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type Kind byte

const (
	// Alloc requests Size addresses for PID.
	Alloc Kind = 'A'
	// Free releases everything PID holds.
	Free Kind = 'F'
	// Checkpoint records the simulator digest in the run report.
	Checkpoint Kind = 'C'
)

type Op struct {
	Kind Kind
	PID  int
	Size int64
}

func (o Op) String() string {
	switch o.Kind {
	case Alloc:
		return fmt.Sprintf("A %d %d", o.PID, o.Size)
	case Free:
		return fmt.Sprintf("F %d", o.PID)
	case Checkpoint:
		return "C"
	}
	return fmt.Sprintf("?%c", o.Kind)
}

// Parse reads one operation per line. Blank lines and text after '#' are ignored.
func Parse(r io.Reader) ([]Op, error) {
	var ops []Op
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		op, err := parseFields(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return ops, nil
}

func parseFields(fields []string) (Op, error) {
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("unknown operation %q", fields[0])
	}
	op := Op{Kind: Kind(strings.ToUpper(fields[0])[0])}

	var want int
	switch op.Kind {
	case Alloc:
		want = 3
	case Free:
		want = 2
	case Checkpoint:
		want = 1
	default:
		return Op{}, fmt.Errorf("unknown operation %q", fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("operation %c takes %d arguments, got %d", op.Kind, want-1, len(fields)-1)
	}

	if want > 1 {
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			return Op{}, fmt.Errorf("pid %q: %w", fields[1], err)
		}
		if pid <= 0 {
			return Op{}, fmt.Errorf("pid must be positive, got %d", pid)
		}
		op.PID = pid
	}
	if want > 2 {
		size, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return Op{}, fmt.Errorf("size %q: %w", fields[2], err)
		}
		if size <= 0 {
			return Op{}, fmt.Errorf("size must be positive, got %d", size)
		}
		op.Size = size
	}
	return op, nil
}

// Write emits ops in the format read by Parse.
func Write(w io.Writer, ops []Op) error {
	for _, op := range ops {
		if _, err := fmt.Fprintln(w, op.String()); err != nil {
			return err
		}
	}
	return nil
}
