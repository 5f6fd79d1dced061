/*
 * T3VM - Console line reader.
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
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// Run drives the interactive prompt loop until the user quits or aborts.
// When stdin is not a terminal (input piped from a file or another
// process) the liner-based editor is skipped in favor of a plain line
// scanner, since liner's raw-mode key handling requires a real tty.
func Run(sess *Session) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		runPiped(sess)
		return
	}

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	for {
		command, err := line.Prompt("t3vm> ")
		if err == nil {
			line.AppendHistory(command)
			quit, err := ProcessCommand(command, sess)
			if err != nil {
				fmt.Println("Error: " + err.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("error reading line: " + err.Error())
	}
}

// runPiped processes commands from a non-interactive stdin, one per line,
// with no prompt, history, or editing.
func runPiped(sess *Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		quit, err := ProcessCommand(scanner.Text(), sess)
		if err != nil {
			fmt.Println("Error: " + err.Error())
		}
		if quit {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Error("error reading line: " + err.Error())
	}
}
