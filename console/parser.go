/*
 * T3VM - Console command parser.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rcornwell/t3vm/isa"
)

type cmd struct {
	name    string
	min     int
	process func(*cmdLine, *Session) (bool, error)
}

type cmdLine struct {
	line string
	pos  int
}

var cmdList = []cmd{
	{name: "step", min: 1, process: stepCmd},
	{name: "run", min: 1, process: runCmd},
	{name: "break", min: 2, process: breakCmd},
	{name: "clear", min: 2, process: clearCmd},
	{name: "resume", min: 2, process: resumeCmd},
	{name: "registers", min: 3, process: regCmd},
	{name: "memory", min: 3, process: memCmd},
	{name: "output", min: 2, process: outputCmd},
	{name: "quit", min: 1, process: quitCmd},
}

// ProcessCommand parses and executes one command line against sess,
// returning true if the console should exit.
func ProcessCommand(commandLine string, sess *Session) (bool, error) {
	line := &cmdLine{line: commandLine}
	name := line.getWord()

	match := matchList(name)
	if len(match) == 0 {
		return false, errors.New("command not found: " + name)
	}
	if len(match) > 1 {
		return false, errors.New("ambiguous command: " + name)
	}
	return match[0].process(line, sess)
}

func matchCommand(m cmd, name string) bool {
	if len(name) > len(m.name) {
		return false
	}
	for i := range name {
		if m.name[i] != name[i] {
			return false
		}
	}
	return len(name) >= m.min
}

func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var out []cmd
	for _, m := range cmdList {
		if matchCommand(m, name) {
			out = append(out, m)
		}
	}
	return out
}

func (l *cmdLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *cmdLine) isEOL() bool { return l.pos >= len(l.line) }

func (l *cmdLine) getWord() string {
	l.skipSpace()
	if l.isEOL() {
		return ""
	}
	start := l.pos
	for !l.isEOL() && !unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
	return strings.ToLower(l.line[start:l.pos])
}

func (l *cmdLine) getInt(def int64) (int64, error) {
	word := l.getWord()
	if word == "" {
		return def, nil
	}
	return strconv.ParseInt(word, 10, 64)
}

func stepCmd(line *cmdLine, sess *Session) (bool, error) {
	n, err := line.getInt(1)
	if err != nil {
		return false, err
	}
	executed, err := sess.run(n)
	if err != nil {
		fmt.Println("fault: " + err.Error())
		return false, nil
	}
	fmt.Printf("executed %d instruction(s), pc=%d\n", executed, sess.VM.Regs.PC)
	return false, nil
}

func runCmd(line *cmdLine, sess *Session) (bool, error) {
	max, err := line.getInt(1 << 30)
	if err != nil {
		return false, err
	}
	executed, err := sess.run(max)
	if err != nil {
		fmt.Println("fault: " + err.Error())
		return false, nil
	}
	fmt.Printf("executed %d instruction(s)\n", executed)
	if sess.VM.Halted() {
		fmt.Println("halted")
	}
	if sess.VM.InDebug() {
		fmt.Printf("stopped at breakpoint, pc=%d\n", sess.VM.Regs.PC)
	}
	return false, nil
}

func breakCmd(line *cmdLine, sess *Session) (bool, error) {
	pc, err := line.getInt(-1)
	if err != nil || pc < 0 {
		return false, errors.New("break requires a pc value")
	}
	sess.VM.SetBreakpoint(pc)
	fmt.Printf("breakpoint set at pc=%d\n", pc)
	return false, nil
}

func clearCmd(line *cmdLine, sess *Session) (bool, error) {
	pc, err := line.getInt(-1)
	if err != nil || pc < 0 {
		return false, errors.New("clear requires a pc value")
	}
	sess.VM.ClearBreakpoint(pc)
	return false, nil
}

func resumeCmd(_ *cmdLine, sess *Session) (bool, error) {
	sess.VM.Resume()
	return false, nil
}

func regCmd(_ *cmdLine, sess *Session) (bool, error) {
	r := sess.VM.Regs
	for i := 0; i < 8; i++ {
		fmt.Printf("%s = %d\n", isa.RegName(i), r.R[i].Decimal())
	}
	fmt.Printf("PC = %d\nSP = %d\nFP = %d\nFLAGS = %d\n", r.PC, r.SP, r.FP, r.Flags)
	return false, nil
}

func memCmd(line *cmdLine, sess *Session) (bool, error) {
	addr, err := line.getInt(-1)
	if err != nil || addr < 0 {
		return false, errors.New("memory requires an address")
	}
	length, err := line.getInt(isa.TotalWidth)
	if err != nil {
		return false, err
	}
	w, err := sess.VM.Mem.Dump(addr, int(length))
	if err != nil {
		return false, err
	}
	fmt.Printf("[%d..%d) = %s (%d)\n", addr, addr+length, w.String(), w.Decimal())
	return false, nil
}

func outputCmd(_ *cmdLine, sess *Session) (bool, error) {
	for sess.VM.Output.Len() > 0 {
		fmt.Println(sess.VM.Output.Pop().Decimal())
	}
	return false, nil
}

func quitCmd(_ *cmdLine, _ *Session) (bool, error) {
	return true, nil
}
