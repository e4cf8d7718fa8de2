// Losp CLI - the main entry point for running losp programs
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/chazu/losp/manifest"
	"github.com/chazu/losp/pkg/bytecode"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("losp")

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: losp [command]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  repl            Start the interactive REPL (default)\n")
	fmt.Fprintf(os.Stderr, "  debug           Start the REPL with instruction tracing\n")
	fmt.Fprintf(os.Stderr, "  run <file>      Execute a source file\n")
	fmt.Fprintf(os.Stderr, "  debug <file>    Execute a source file with instruction tracing\n\n")
	fmt.Fprintf(os.Stderr, "Set LOSP_VERBOSITY to raise the log level.\n\n")
	fmt.Fprintf(os.Stderr, "Examples:\n")
	fmt.Fprintf(os.Stderr, "  losp                   # Start REPL\n")
	fmt.Fprintf(os.Stderr, "  losp run main.losp     # Run a file\n")
	fmt.Fprintf(os.Stderr, "  losp debug main.losp   # Run a file, tracing each instruction\n")
}

// verbosity reads the log level from LOSP_VERBOSITY. Unset or unparsable
// means quiet.
func verbosity() int {
	v := os.Getenv("LOSP_VERBOSITY")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func main() {
	commonlog.Configure(verbosity(), nil)

	man, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if man.Dir != "" {
		log.Infof("using losp.toml from %s", man.Dir)
	}

	vm := bytecode.NewVM()
	if man.VM.StackSize > 0 || man.VM.MaxFrames > 0 {
		vm.SetLimits(man.VM.StackSize, man.VM.MaxFrames)
		log.Infof("vm limits: stack-size=%d max-frames=%d", man.VM.StackSize, man.VM.MaxFrames)
	}

	args := os.Args[1:]
	switch {
	case len(args) == 0, args[0] == "repl" && len(args) == 1:
		runREPL(vm, man, false)

	case args[0] == "debug" && len(args) == 1:
		runREPL(vm, man, true)

	case args[0] == "run" && len(args) == 2:
		runFile(vm, args[1], false)

	case args[0] == "debug" && len(args) == 2:
		runFile(vm, args[1], true)

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}
}

// runFile executes a source file. Tracing goes to stderr so program output
// stays clean on stdout.
func runFile(vm *bytecode.VM, path string, trace bool) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if trace {
		vm.SetTracer(&bytecode.TraceWriter{W: os.Stderr})
	}

	log.Debugf("running %s", path)
	if _, err := vm.EvalSource(string(src)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
