package bytecode

import "github.com/chazu/losp/pkg/parser"

// CompileSource parses src and compiles each top-level form into its own
// chunk, stopping at the first error.
func CompileSource(src string) ([]*Chunk, error) {
	forms, err := parser.ParseProgram(src)
	if err != nil {
		return nil, err
	}
	chunks := make([]*Chunk, 0, len(forms))
	for _, form := range forms {
		chunk, err := Compile(form)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// EvalSource compiles and runs every top-level form in src on this VM and
// returns the value of the last one. Globals defined by earlier forms are
// visible to later ones. An empty program evaluates to nil.
func (vm *VM) EvalSource(src string) (Value, error) {
	chunks, err := CompileSource(src)
	if err != nil {
		return Nil, err
	}
	result := Nil
	for _, chunk := range chunks {
		result, err = vm.RunChunk(chunk)
		if err != nil {
			return Nil, err
		}
	}
	return result, nil
}
