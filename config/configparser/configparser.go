/*
 * T3VM - Configuration file parser.
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

package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/rcornwell/t3vm/scheduler"
)

/* Configuration file format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <key> *<whitespace> '=' *<whitespace> <value>
 * <key>  := one of memory, policy, quantum, program, loglevel, logfile
 * <value> := <string> | '"' *(<letter> | <whitespace>) '"'
 */

// Config is the parsed set of T3VM startup options.
type Config struct {
	MemorySize int64
	Policy     scheduler.Policy
	Quantum    int
	Program    string
	LogLevel   string
	LogFile    string
}

// Default returns the baseline configuration used when no file is given.
func Default() *Config {
	return &Config{
		MemorySize: 8000,
		Policy:     scheduler.RoundRobin,
		Quantum:    scheduler.DefaultQuantum,
		LogLevel:   "info",
	}
}

var policyNames = map[string]scheduler.Policy{
	"roundrobin": scheduler.RoundRobin,
	"priority":   scheduler.Priority,
	"multilevel": scheduler.Multilevel,
	"sjf":        scheduler.SJF,
	"fcfs":       scheduler.FCFS,
}

var lineNumber int

// Load reads a configuration file, starting from Default and overriding
// any key present in the file.
func Load(name string) (*Config, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		raw, err := reader.ReadString('\n')
		lineNumber++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if err := parseLine(cfg, raw); err != nil {
			return nil, err
		}
		if err != nil && errors.Is(err, io.EOF) {
			break
		}
	}
	return cfg, nil
}

type optionLine struct {
	line string
	pos  int
}

func (l *optionLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *optionLine) isEOL() bool {
	return l.pos >= len(l.line) || l.line[l.pos] == '#'
}

func parseLine(cfg *Config, raw string) error {
	l := &optionLine{line: raw}
	l.skipSpace()
	if l.isEOL() {
		return nil
	}

	start := l.pos
	for !l.isEOL() && l.line[l.pos] != '=' && !unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
	key := strings.ToLower(l.line[start:l.pos])

	l.skipSpace()
	if l.isEOL() || l.line[l.pos] != '=' {
		return fmt.Errorf("config: line %d: expected '=' after %q", lineNumber, key)
	}
	l.pos++
	l.skipSpace()

	value := parseValue(l)
	return apply(cfg, key, value)
}

func parseValue(l *optionLine) string {
	if l.isEOL() {
		return ""
	}
	if l.line[l.pos] == '"' {
		l.pos++
		start := l.pos
		for l.pos < len(l.line) && l.line[l.pos] != '"' {
			l.pos++
		}
		value := l.line[start:l.pos]
		return value
	}
	start := l.pos
	for !l.isEOL() && !unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
	return l.line[start:l.pos]
}

func apply(cfg *Config, key, value string) error {
	switch key {
	case "memory":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("config: line %d: invalid memory size %q", lineNumber, value)
		}
		cfg.MemorySize = n
	case "policy":
		p, ok := policyNames[strings.ToLower(value)]
		if !ok {
			return fmt.Errorf("config: line %d: unknown policy %q", lineNumber, value)
		}
		cfg.Policy = p
	case "quantum":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: line %d: invalid quantum %q", lineNumber, value)
		}
		cfg.Quantum = n
	case "program":
		cfg.Program = value
	case "loglevel":
		cfg.LogLevel = strings.ToLower(value)
	case "logfile":
		cfg.LogFile = value
	default:
		return fmt.Errorf("config: line %d: unknown option %q", lineNumber, key)
	}
	return nil
}
