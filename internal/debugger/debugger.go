// Package debugger implements the Locus 16 line-oriented command
// interpreter: step/continue execution, inspect and patch memory, manage
// breakpoints, and dump ALP registers, all driven from a REPL prompt.
package debugger

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/starritt/locus16/internal/alp"
	"github.com/starritt/locus16/internal/bus"
	"github.com/starritt/locus16/internal/disasm"
	"github.com/starritt/locus16/internal/hexdump"
	"github.com/starritt/locus16/internal/scheduler"
)

// Debugger ties the bus, scheduler, and ALPs together behind the command
// table the reference emulator's REPL exposes.
type Debugger struct {
	bus         *bus.Bus
	scheduler   *scheduler.Scheduler
	primary     *alp.ALP
	secondary   *alp.ALP
	breakpoints *breakpointSet
	out         io.Writer
}

// New builds a debugger. secondary may be nil on a machine with only a
// primary ALP.
func New(b *bus.Bus, s *scheduler.Scheduler, primary, secondary *alp.ALP, out io.Writer) *Debugger {
	return &Debugger{bus: b, scheduler: s, primary: primary, secondary: secondary, breakpoints: newBreakpointSet(), out: out}
}

// Run starts the interactive REPL and blocks until the user issues EX or
// input is exhausted.
func (d *Debugger) Run() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	var lastInput string
	d.dumpAllRegisters()

	for {
		text, err := line.Prompt("> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(d.out, "input terminated")
				return nil
			}
			return err
		}

		trimmed := strings.TrimSpace(text)
		if trimmed != "" && !strings.EqualFold(trimmed, lastInput) {
			line.AppendHistory(trimmed)
		}
		if trimmed != "" {
			lastInput = trimmed
		}

		if d.ProcessLine(trimmed) {
			fmt.Fprintln(d.out, "exiting...")
			return nil
		}
	}
}

// ProcessLine executes one command line, returning true when it was EX.
func (d *Debugger) ProcessLine(line string) (exit bool) {
	upper := strings.ToUpper(line)
	rest := func(prefix string) string {
		return strings.TrimSpace(line[len(prefix):])
	}

	switch {
	case line == "" || strings.HasPrefix(line, "//"):
		// comment or blank line

	case strings.HasPrefix(upper, "EX"):
		return true

	case strings.HasPrefix(upper, "CU"):
		d.cmdRun(rest("CU"), false)

	case strings.HasPrefix(upper, "SS"):
		d.cmdRun("", true)

	case strings.HasPrefix(upper, "AA"):
		d.cmdAccess(rest("AA"))

	case strings.HasPrefix(upper, "DM"):
		d.cmdDumpMemory(rest("DM"))

	case strings.HasPrefix(upper, "DA"):
		d.cmdDisassemble(rest("DA"))

	case strings.HasPrefix(upper, "SC"):
		d.cmdSetCore(rest("SC"))

	case strings.HasPrefix(upper, "DR"):
		d.cmdDumpRegisters(rest("DR"))

	case strings.HasPrefix(upper, "SB"):
		d.cmdSetBreak(rest("SB"))

	case strings.HasPrefix(upper, "CB"):
		d.cmdClearBreak(rest("CB"))

	case strings.HasPrefix(upper, "LB"):
		d.cmdListBreaks()

	case strings.HasPrefix(upper, "HE"):
		fmt.Fprint(d.out, helpText)

	default:
		fmt.Fprintf(d.out, "Invalid command: %s\n", line)
	}
	return false
}

const helpText = `EX                   exit
CU [number]          continue, optional number of instructions
SS                   step 1 instruction, same as CU 1
AA hexaddr [number]  access address, optional number of words
DM hexaddr [number]  dump memory, optional number of words
DA hexaddr [number]  disassemble, optional number of words
SC hexaddr hexvalues set up to 16 values from the specified start address
DR [level]           dump ALP registers for all levels or the specified level
SB hexaddr           set break point
CB hexaddr           clear break point
LB                   list break points
HE                   help
// <any text>        comment - ignored.
`

func (d *Debugger) cmdRun(arg string, singleStep bool) {
	count := 1
	if !singleStep {
		if arg == "" {
			count = -1 // "infinite", bounded only by a breakpoint/fault
		} else {
			n, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				fmt.Fprintf(d.out, "Invalid number: %s\n", arg)
				return
			}
			count = int(n)
		}
	}

	stop := func() bool {
		if d.primary == nil {
			return false
		}
		return d.breakpoints.has(d.currentPC(d.primary))
	}
	steps, faulted := d.scheduler.Run(stop, count)
	fmt.Fprintf(d.out, "ran %d step(s)\n", steps)
	if faulted {
		fmt.Fprintln(d.out, "device reported a decode fault")
	}
	d.dumpAllRegisters()
}

func (d *Debugger) currentPC(a *alp.ALP) int16 {
	return a.GetWord(a.RegisterAddr(a.CurrentLevel(), 1))
}

func (d *Debugger) dumpAllRegisters() {
	if d.primary != nil {
		d.dumpRegisters(d.primary, -1)
	}
	if d.secondary != nil {
		d.dumpRegisters(d.secondary, -1)
	}
}

func (d *Debugger) dumpRegisters(a *alp.ALP, level int) {
	levels := []int{level}
	if level < 0 {
		levels = make([]int, a.NumberLevels())
		for i := range levels {
			levels[i] = i
		}
	}
	for _, lv := range levels {
		p := a.GetWord(a.RegisterAddr(lv, 1))
		reg := a.GetWord(a.RegisterAddr(lv, 2))
		r := a.GetWord(a.RegisterAddr(lv, 3))
		s := a.GetWord(a.RegisterAddr(lv, 4))
		t := a.GetWord(a.RegisterAddr(lv, 5))
		flags := a.GetWord(a.RegisterAddr(lv, 6))
		var b strings.Builder
		fmt.Fprintf(&b, "level %d: P=", lv)
		hexdump.FormatAddr(&b, p)
		fmt.Fprint(&b, " A=")
		hexdump.FormatAddr(&b, reg)
		fmt.Fprint(&b, " R=")
		hexdump.FormatAddr(&b, r)
		fmt.Fprint(&b, " S=")
		hexdump.FormatAddr(&b, s)
		fmt.Fprint(&b, " T=")
		hexdump.FormatAddr(&b, t)
		fmt.Fprintf(&b, " C=%d V=%d K=%d", flags&1, (flags>>1)&1, (flags>>2)&1)
		fmt.Fprintln(d.out, b.String())
	}
}

func (d *Debugger) cmdAccess(arg string) {
	addr, words, ok := parseAddrAndCount(arg)
	if !ok {
		fmt.Fprintf(d.out, "Invalid: %s\n", arg)
		return
	}
	for i := 0; i < words; i++ {
		a := addr + int16(2*i)
		var b strings.Builder
		hexdump.FormatAddr(&b, a)
		fmt.Fprintf(d.out, "%s: %04X\n", b.String(), uint16(d.bus.GetWord(a)))
	}
}

func (d *Debugger) cmdDumpMemory(arg string) {
	addr, words, ok := parseAddrAndCount(arg)
	if !ok {
		fmt.Fprintf(d.out, "Invalid: %s\n", arg)
		return
	}
	for i := 0; i < words; i += 8 {
		n := words - i
		if n > 8 {
			n = 8
		}
		row := make([]uint16, n)
		for j := 0; j < n; j++ {
			row[j] = uint16(d.bus.GetWord(addr + int16(2*(i+j))))
		}
		fmt.Fprintln(d.out, hexdump.DumpLine(addr+int16(2*i), row))
	}
}

func (d *Debugger) cmdDisassemble(arg string) {
	addr, words, ok := parseAddrAndCount(arg)
	if !ok {
		fmt.Fprintf(d.out, "Invalid: %s\n", arg)
		return
	}
	var prev *disasm.Instruction
	for i := 0; i < words; i++ {
		a := addr + int16(2*i)
		word := uint16(d.bus.GetWord(a))
		ins := disasm.Decode(a, word, prev)
		fmt.Fprintf(d.out, "%04X: %04X  %s\n", uint16(ins.Address), ins.Raw, ins.Mnemonic)
		prev = &ins
	}
}

func (d *Debugger) cmdSetCore(arg string) {
	fields := strings.Fields(arg)
	if len(fields) < 2 {
		fmt.Fprintf(d.out, "Invalid: %s\n", arg)
		return
	}
	base, err := strconv.ParseUint(fields[0], 16, 16)
	if err != nil {
		fmt.Fprintf(d.out, "Invalid: %s\n", arg)
		return
	}
	values := fields[1:]
	if len(values) > 16 {
		values = values[:16]
	}
	for j, hexVal := range values {
		v, err := strconv.ParseUint(hexVal, 16, 16)
		if err != nil {
			fmt.Fprintf(d.out, "Invalid value: %s\n", hexVal)
			return
		}
		addr := int16(base) + int16(2*j)
		d.bus.SetWord(addr, int16(v))
	}
}

func (d *Debugger) cmdDumpRegisters(arg string) {
	if arg == "" {
		d.dumpAllRegisters()
		return
	}
	level, err := strconv.Atoi(arg)
	if err != nil || level < 0 {
		fmt.Fprintf(d.out, "Invalid: level %s\n", arg)
		return
	}
	if d.primary != nil && level < d.primary.NumberLevels() {
		d.dumpRegisters(d.primary, level)
	}
	if d.secondary != nil && level < d.secondary.NumberLevels() {
		d.dumpRegisters(d.secondary, level)
	}
}

func (d *Debugger) cmdSetBreak(arg string) {
	addr, ok := parseHexAddr(arg)
	if !ok {
		fmt.Fprintf(d.out, "Invalid: %s\n", arg)
		return
	}
	d.breakpoints.set(addr)
}

func (d *Debugger) cmdClearBreak(arg string) {
	addr, ok := parseHexAddr(arg)
	if !ok {
		fmt.Fprintf(d.out, "Invalid: %s\n", arg)
		return
	}
	d.breakpoints.clear(addr)
}

func (d *Debugger) cmdListBreaks() {
	for _, addr := range d.breakpoints.list() {
		fmt.Fprintf(d.out, "%04X\n", uint16(addr))
	}
}

func parseHexAddr(arg string) (int16, bool) {
	fields := strings.Fields(arg)
	if len(fields) < 1 {
		return 0, false
	}
	v, err := strconv.ParseUint(fields[0], 16, 16)
	if err != nil {
		return 0, false
	}
	return int16(v), true
}

func parseAddrAndCount(arg string) (addr int16, words int, ok bool) {
	fields := strings.Fields(arg)
	if len(fields) < 1 {
		return 0, 0, false
	}
	a, err := strconv.ParseUint(fields[0], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	words = 1
	if len(fields) >= 2 {
		n, err := strconv.Atoi(fields[1])
		if err == nil && n > 0 {
			words = n
		}
	}
	return int16(a), words, true
}
