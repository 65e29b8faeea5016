// Package qasm inspects the OpenQASM 2.0 body of an object file.
//
// It is not a full QASM front end. It resolves register declarations, gate
// applications, measurements and classically-controlled gates so callers
// can check qubit coverage, count gates and draw diagrams. Custom gate
// definitions are skipped.
package qasm

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/gocavy/internal/ir"
)

// Pre-compiled statement patterns. Statements have had their trailing ';'
// and surrounding space removed.
var (
	versionRegex = regexp.MustCompile(`^OPENQASM\s+([0-9]+(?:\.[0-9]+)?)$`)
	includeRegex = regexp.MustCompile(`^include\s+"([^"]+)"$`)
	regDeclRegex = regexp.MustCompile(`^(qreg|creg)\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	measureRegex = regexp.MustCompile(`^measure\s+(.+?)\s*->\s*(.+)$`)
	ifRegex      = regexp.MustCompile(`^if\s*\(\s*(\w+)\s*==\s*(\d+)\s*\)\s*(.+)$`)
	gateRegex    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*(.*)$`)
	argRegex     = regexp.MustCompile(`^(\w+)\s*(?:\[\s*(\d+)\s*\])?$`)
)

// Register is a declared qreg or creg. Qubit registers are laid out one
// after another; Offset is the flat index of element 0.
type Register struct {
	Name   string
	Size   int
	Offset int
}

// Op is one gate application, measurement, reset or barrier.
type Op struct {
	Name      string
	Params    string
	Qubits    []ir.Qubit
	Clbits    []int
	Condition string
	Line      int
}

// Summary is the result of inspecting a QASM body.
type Summary struct {
	Version  string
	Includes []string
	QRegs    []Register
	CRegs    []Register
	Ops      []Op
}

// Error reports a malformed statement.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("qasm line %d: %s", e.Line, e.Message)
}

// NumQubits returns the total size of all qubit registers.
func (s *Summary) NumQubits() int {
	n := 0
	for _, r := range s.QRegs {
		n += r.Size
	}
	return n
}

// GateCounts returns the number of applications of each operation name.
func (s *Summary) GateCounts() map[string]int {
	counts := make(map[string]int)
	for _, op := range s.Ops {
		counts[op.Name]++
	}
	return counts
}

// Measured returns the qubits measured anywhere in the body, ascending.
func (s *Summary) Measured() []ir.Qubit {
	set := make(map[ir.Qubit]struct{})
	for _, op := range s.Ops {
		if op.Name != "measure" {
			continue
		}
		for _, q := range op.Qubits {
			set[q] = struct{}{}
		}
	}
	return ir.SortedQubits(set)
}

// Declares reports whether q is a valid flat qubit index.
func (s *Summary) Declares(q ir.Qubit) bool {
	return q >= 0 && int(q) < s.NumQubits()
}

// Inspect parses body and returns its summary.
func Inspect(body string) (*Summary, error) {
	p := &parser{
		summary: &Summary{},
		qregs:   make(map[string]Register),
		cregs:   make(map[string]Register),
	}
	for i, line := range strings.Split(body, "\n") {
		if err := p.line(i+1, line); err != nil {
			return nil, err
		}
	}
	if p.inGate {
		return nil, &Error{Line: p.lastLine, Message: "unterminated gate definition"}
	}
	return p.summary, nil
}

type parser struct {
	summary   *Summary
	qregs     map[string]Register
	cregs     map[string]Register
	nextQubit int
	nextClbit int
	skipDepth int
	inGate    bool
	lastLine  int
}

func (p *parser) line(n int, line string) error {
	p.lastLine = n
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	// Skip custom gate bodies: "gate name a,b { ... }" may span lines.
	if p.inGate || strings.HasPrefix(line, "gate ") {
		p.inGate = true
		p.skipDepth += strings.Count(line, "{") - strings.Count(line, "}")
		if p.skipDepth < 0 {
			return &Error{Line: n, Message: "unbalanced '}'"}
		}
		if p.skipDepth == 0 && strings.Contains(line, "}") {
			p.inGate = false
		}
		return nil
	}
	if strings.HasPrefix(line, "opaque ") {
		return nil
	}

	for _, stmt := range strings.Split(line, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := p.statement(n, stmt, ""); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) statement(n int, stmt, cond string) error {
	if m := versionRegex.FindStringSubmatch(stmt); m != nil {
		p.summary.Version = m[1]
		return nil
	}
	if m := includeRegex.FindStringSubmatch(stmt); m != nil {
		p.summary.Includes = append(p.summary.Includes, m[1])
		return nil
	}
	if m := regDeclRegex.FindStringSubmatch(stmt); m != nil {
		return p.declare(n, m[1], m[2], m[3])
	}
	if m := ifRegex.FindStringSubmatch(stmt); m != nil {
		if _, ok := p.cregs[m[1]]; !ok {
			return &Error{Line: n, Message: fmt.Sprintf("unknown classical register %q", m[1])}
		}
		return p.statement(n, m[3], m[1]+"=="+m[2])
	}
	if m := measureRegex.FindStringSubmatch(stmt); m != nil {
		qubits, err := p.resolve(n, p.qregs, m[1])
		if err != nil {
			return err
		}
		clbits, err := p.resolve(n, p.cregs, m[2])
		if err != nil {
			return err
		}
		if len(qubits) != len(clbits) {
			return &Error{Line: n, Message: "measure operands differ in size"}
		}
		p.add(Op{Name: "measure", Qubits: toQubits(qubits), Clbits: clbits, Condition: cond, Line: n})
		return nil
	}
	if m := gateRegex.FindStringSubmatch(stmt); m != nil && m[3] != "" {
		return p.gate(n, strings.ToLower(m[1]), m[2], m[3], cond)
	}
	return &Error{Line: n, Message: fmt.Sprintf("unrecognized statement %q", stmt)}
}

func (p *parser) declare(n int, kind, name, size string) error {
	if _, dup := p.qregs[name]; dup {
		return &Error{Line: n, Message: fmt.Sprintf("register %q declared twice", name)}
	}
	if _, dup := p.cregs[name]; dup {
		return &Error{Line: n, Message: fmt.Sprintf("register %q declared twice", name)}
	}
	sz, err := strconv.Atoi(size)
	if err != nil || sz <= 0 {
		return &Error{Line: n, Message: fmt.Sprintf("invalid register size %q", size)}
	}

	if kind == "qreg" {
		r := Register{Name: name, Size: sz, Offset: p.nextQubit}
		p.nextQubit += sz
		p.qregs[name] = r
		p.summary.QRegs = append(p.summary.QRegs, r)
		return nil
	}
	r := Register{Name: name, Size: sz, Offset: p.nextClbit}
	p.nextClbit += sz
	p.cregs[name] = r
	p.summary.CRegs = append(p.summary.CRegs, r)
	return nil
}

// gate handles "name(params) a, b[1], ...". A bare register argument
// broadcasts the gate over every element; all bare registers in one
// application must have equal size.
func (p *parser) gate(n int, name, params, args, cond string) error {
	var operands [][]int
	width := 1
	for _, arg := range strings.Split(args, ",") {
		idx, err := p.resolve(n, p.qregs, arg)
		if err != nil {
			return err
		}
		if len(idx) > 1 {
			if width > 1 && len(idx) != width {
				return &Error{Line: n, Message: "broadcast registers differ in size"}
			}
			width = len(idx)
		}
		operands = append(operands, idx)
	}

	for k := 0; k < width; k++ {
		qubits := make([]ir.Qubit, len(operands))
		for j, idx := range operands {
			if len(idx) == 1 {
				qubits[j] = ir.Qubit(idx[0])
			} else {
				qubits[j] = ir.Qubit(idx[k])
			}
		}
		p.add(Op{Name: name, Params: strings.TrimSpace(params), Qubits: qubits, Condition: cond, Line: n})
	}
	return nil
}

// resolve maps "reg[i]" or "reg" to flat indices within regs.
func (p *parser) resolve(n int, regs map[string]Register, arg string) ([]int, error) {
	m := argRegex.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return nil, &Error{Line: n, Message: fmt.Sprintf("invalid operand %q", arg)}
	}
	r, ok := regs[m[1]]
	if !ok {
		return nil, &Error{Line: n, Message: fmt.Sprintf("unknown register %q", m[1])}
	}
	if m[2] == "" {
		out := make([]int, r.Size)
		for i := range out {
			out[i] = r.Offset + i
		}
		return out, nil
	}
	i, _ := strconv.Atoi(m[2])
	if i >= r.Size {
		return nil, &Error{Line: n, Message: fmt.Sprintf("index %d out of range for %s[%d]", i, r.Name, r.Size)}
	}
	return []int{r.Offset + i}, nil
}

func (p *parser) add(op Op) {
	p.summary.Ops = append(p.summary.Ops, op)
}

func toQubits(idx []int) []ir.Qubit {
	qs := make([]ir.Qubit, len(idx))
	for i, v := range idx {
		qs[i] = ir.Qubit(v)
	}
	return qs
}

// SortedGateNames returns the operation names in GateCounts, sorted.
func SortedGateNames(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
