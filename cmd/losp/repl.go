package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/losp/manifest"
	"github.com/chazu/losp/pkg/bytecode"
)

// runREPL starts an interactive read-eval-print loop. Input accumulates
// until its parens balance, so forms can span lines.
func runREPL(vm *bytecode.VM, man *manifest.Manifest, trace bool) {
	fmt.Println("losp REPL (type 'exit' to quit, ':help' for commands)")
	traceOn = trace
	if trace {
		vm.SetTracer(&bytecode.TraceWriter{W: os.Stderr})
		fmt.Println("Instruction tracing is on")
	}
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	lineBuffer := strings.Builder{}

	for {
		if lineBuffer.Len() == 0 {
			fmt.Print(man.REPL.Prompt)
		} else {
			fmt.Print(man.REPL.Continuation)
		}

		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if lineBuffer.Len() == 0 && (line == "exit" || line == "quit") {
			break
		}

		// Handle REPL commands (start with ':')
		if lineBuffer.Len() == 0 && strings.HasPrefix(line, ":") {
			vm = handleREPLCommand(vm, man, line)
			continue
		}

		if lineBuffer.Len() > 0 {
			lineBuffer.WriteString("\n")
		}
		lineBuffer.WriteString(line)

		input := lineBuffer.String()
		if parenDepth(input) > 0 {
			continue
		}
		lineBuffer.Reset()

		if strings.TrimSpace(input) == "" {
			continue
		}
		evalAndPrint(vm, input)
	}

	fmt.Println()
}

var traceOn bool

// handleREPLCommand handles REPL meta-commands
func handleREPLCommand(vm *bytecode.VM, man *manifest.Manifest, cmd string) *bytecode.VM {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Println("REPL Commands:")
		fmt.Println("  :help, :h, :?     Show this help")
		fmt.Println("  :trace            Toggle instruction tracing")
		fmt.Println("  :reset            Discard all global bindings")
		fmt.Println("  exit, quit        Exit REPL")
	case ":trace":
		if traceOn = !traceOn; traceOn {
			vm.SetTracer(&bytecode.TraceWriter{W: os.Stderr})
			fmt.Println("Instruction tracing is on")
		} else {
			vm.SetTracer(nil)
			fmt.Println("Instruction tracing is off")
		}
	case ":reset":
		fresh := bytecode.NewVM()
		if man.VM.StackSize > 0 || man.VM.MaxFrames > 0 {
			fresh.SetLimits(man.VM.StackSize, man.VM.MaxFrames)
		}
		if traceOn {
			fresh.SetTracer(&bytecode.TraceWriter{W: os.Stderr})
		}
		fmt.Println("Globals discarded")
		return fresh
	default:
		fmt.Printf("Unknown command: %s (type :help for commands)\n", cmd)
	}
	return vm
}

// evalAndPrint runs one batch of input and echoes the resulting value.
func evalAndPrint(vm *bytecode.VM, input string) {
	result, err := vm.EvalSource(input)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(result.Inspect())
}

// parenDepth counts unclosed parens, ignoring those inside strings and
// comments. Negative depths are surfaced to the parser as stray-paren
// errors rather than swallowed here.
func parenDepth(src string) int {
	depth := 0
	inString := false
	inComment := false
	for _, c := range src {
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
			}
		case inString:
			if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == ';':
			inComment = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		}
	}
	return depth
}
