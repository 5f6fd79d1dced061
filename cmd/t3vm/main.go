/*
 * T3VM - Main process.
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

package main

import (
	"bufio"
	"log/slog"
	"os"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	config "github.com/rcornwell/t3vm/config/configparser"
	"github.com/rcornwell/t3vm/console"
	"github.com/rcornwell/t3vm/isa"
	"github.com/rcornwell/t3vm/memory"
	"github.com/rcornwell/t3vm/scheduler"
	"github.com/rcornwell/t3vm/ternary"
	logger "github.com/rcornwell/t3vm/util/logger"
	"github.com/rcornwell/t3vm/vm"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optProgram := getopt.StringLong("program", 'p', "", "Program image to load")
	optMemory := getopt.IntLong("memory", 'm', 0, "Memory size in trits")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	debug := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
	slog.SetDefault(Logger)

	cfg := config.Default()
	if *optConfig != "" {
		loaded, err := config.Load(*optConfig)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
		cfg = loaded
	}
	if *optProgram != "" {
		cfg.Program = *optProgram
	}
	if *optMemory > 0 {
		cfg.MemorySize = int64(*optMemory)
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		programLevel.Set(slog.LevelDebug)
		debug = true
	case "warn":
		programLevel.Set(slog.LevelWarn)
	case "error":
		programLevel.Set(slog.LevelError)
	}
	if h, ok := Logger.Handler().(*logger.LogHandler); ok {
		h.SetDebug(&debug)
	}

	Logger.Info("T3VM started", "memory", cfg.MemorySize, "policy", cfg.Policy)

	mem := memory.New(cfg.MemorySize)
	machine := vm.New(mem, 1)

	sched := scheduler.New(cfg.Policy, cfg.Quantum)
	sched.AttachTVM(machine)

	if cfg.Program != "" {
		code, err := loadProgramFile(cfg.Program)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
		if err := machine.LoadProgram(code); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
		Logger.Info("program loaded", "instructions", len(code))
	}

	proc := sched.CreateProcess("init", 0)
	sched.Schedule()
	Logger.Info("process dispatched", "pid", proc.PID, "policy", cfg.Policy, "quantum", cfg.Quantum)

	console.Run(console.NewScheduledSession(machine, sched))

	Logger.Info("T3VM shutting down")
}

// loadProgramFile reads a T3VM program image: one decimal-encoded 27-trit
// instruction word per line, '#' starting a comment.
func loadProgramFile(path string) ([]ternary.Word, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var code []ternary.Word
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, err
		}
		code = append(code, ternary.WordFromInt(v, isa.TotalWidth))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return code, nil
}
