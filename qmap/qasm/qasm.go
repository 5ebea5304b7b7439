// Package qasm reads and writes the OpenQASM 2.0 subset the mapper works
// with: a single quantum register and the gates t, tdg and cx.
package qasm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/simmap/simmap/qmap"
)

// Op is one gate application.
type Op struct {
	Name   string // "t", "tdg" or "cx"
	Qubits []int
}

// Program is a parsed QASM program.
type Program struct {
	Register string
	Size     int // declared register size
	Ops      []Op
}

// gateArity lists the supported gates.
var gateArity = map[string]int{"t": 1, "tdg": 1, "cx": 2}

var (
	qregRe    = regexp.MustCompile(`^qreg\s+([A-Za-z_][A-Za-z0-9_]*)\s*\[\s*(\d+)\s*\]$`)
	gateRe    = regexp.MustCompile(`^([a-z]+)\s+(.+)$`)
	operandRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\[\s*(\d+)\s*\]$`)
)

// Parse reads a program. Errors name the offending line.
func Parse(r io.Reader) (*Program, error) {
	p := &Program{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}
		for _, stmt := range strings.Split(text, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := p.statement(stmt); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if p.Register == "" {
		return nil, fmt.Errorf("no qreg declaration")
	}
	return p, nil
}

func (p *Program) statement(stmt string) error {
	switch {
	case strings.HasPrefix(stmt, "OPENQASM"):
		if v := strings.TrimSpace(strings.TrimPrefix(stmt, "OPENQASM")); v != "2.0" {
			return fmt.Errorf("unsupported OpenQASM version %q", v)
		}
		return nil
	case strings.HasPrefix(stmt, "include"):
		return nil
	case strings.HasPrefix(stmt, "qreg"):
		m := qregRe.FindStringSubmatch(stmt)
		if m == nil {
			return fmt.Errorf("malformed qreg %q", stmt)
		}
		if p.Register != "" {
			return fmt.Errorf("second qreg %q; only one register is supported", m[1])
		}
		p.Register = m[1]
		p.Size, _ = strconv.Atoi(m[2])
		return nil
	}

	m := gateRe.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("unrecognized statement %q", stmt)
	}
	arity, ok := gateArity[m[1]]
	if !ok {
		return fmt.Errorf("unsupported gate %q", m[1])
	}
	if p.Register == "" {
		return fmt.Errorf("gate %q before qreg", m[1])
	}
	operands := strings.Split(m[2], ",")
	if len(operands) != arity {
		return fmt.Errorf("gate %s takes %d operands, got %d", m[1], arity, len(operands))
	}
	op := Op{Name: m[1], Qubits: make([]int, 0, arity)}
	for _, o := range operands {
		om := operandRe.FindStringSubmatch(strings.TrimSpace(o))
		if om == nil {
			return fmt.Errorf("malformed operand %q", o)
		}
		if om[1] != p.Register {
			return fmt.Errorf("unknown register %q", om[1])
		}
		q, _ := strconv.Atoi(om[2])
		if q >= p.Size {
			return fmt.Errorf("qubit %s[%d] outside register of size %d", om[1], q, p.Size)
		}
		op.Qubits = append(op.Qubits, q)
	}
	if arity == 2 && op.Qubits[0] == op.Qubits[1] {
		return fmt.Errorf("cx operands must differ")
	}
	p.Ops = append(p.Ops, op)
	return nil
}

// Gates returns the gate list the mapper consumes.
func (p *Program) Gates() [][]int {
	gates := make([][]int, len(p.Ops))
	for i, op := range p.Ops {
		gates[i] = append([]int(nil), op.Qubits...)
	}
	return gates
}

// UsedQubits returns the number of distinct qubits the gates touch.
func (p *Program) UsedQubits() int {
	seen := make(map[int]bool)
	for _, op := range p.Ops {
		for _, q := range op.Qubits {
			seen[q] = true
		}
	}
	return len(seen)
}

// Circuit builds a circuit on layout sized to the used qubits.
func (p *Program) Circuit(layout qmap.Layout) (qmap.Circuit, error) {
	n := max(p.UsedQubits(), 1)
	arch, err := layout.Build(n)
	if err != nil {
		return qmap.Circuit{}, err
	}
	return qmap.NewCircuit(arch, p.Gates())
}

// LoadCircuit parses the QASM file at path and builds its circuit.
func LoadCircuit(path string, layout qmap.Layout) (qmap.Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		return qmap.Circuit{}, err
	}
	defer func() { _ = f.Close() }()
	p, err := Parse(f)
	if err != nil {
		return qmap.Circuit{}, fmt.Errorf("%s: %w", path, err)
	}
	return p.Circuit(layout)
}

// Write renders p as OpenQASM 2.0.
func Write(w io.Writer, p *Program) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg %s[%d];\n", p.Register, p.Size)
	for _, op := range p.Ops {
		args := make([]string, len(op.Qubits))
		for i, q := range op.Qubits {
			args[i] = fmt.Sprintf("%s[%d]", p.Register, q)
		}
		fmt.Fprintf(bw, "%s %s;\n", op.Name, strings.Join(args, ","))
	}
	return bw.Flush()
}
