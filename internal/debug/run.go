package debug

import (
	"kone/internal/asm"
	"kone/internal/device"
	"kone/internal/machine"
	"kone/internal/source"
)

// Parse parses the source text without assembling it. On failure the
// returned bag holds one error diagnostic per failure, each followed by its
// suggestions, resolvable against the returned file set.
func Parse(name string, text []byte) (*asm.Program, *source.FileSet, *LoadError) {
	files := source.NewFileSet()
	id := files.AddVirtual(name, text)

	prog, perrs := asm.Parse(files.Get(id))
	if perrs != nil {
		return nil, files, &LoadError{Files: files, File: id, Bag: asm.Diagnostics(files, id, perrs)}
	}
	return prog, files, nil
}

// Assemble parses and compiles one file of the set without running it. Used
// by diagnostics-only paths that need the full error surface but no machine;
// the caller owns the file set, so bags from several files resolve against
// the same one.
func Assemble(files *source.FileSet, id source.FileID) (*asm.Image, *LoadError) {
	prog, perrs := asm.Parse(files.Get(id))
	if perrs != nil {
		return nil, &LoadError{Files: files, File: id, Bag: asm.Diagnostics(files, id, perrs)}
	}
	img, cerrs := asm.Compile(prog)
	if cerrs != nil {
		return nil, &LoadError{Files: files, File: id, Bag: asm.Diagnostics(files, id, cerrs)}
	}
	return img, nil
}

// ExecuteToCompletion assembles and runs the program in one shot, with no
// event relay, and returns the words it wrote to the output device. Used
// for batch runs and as the reference result the stepper is tested against.
func ExecuteToCompletion(name string, text []byte, input ...int32) ([]int32, error) {
	files := source.NewFileSet()
	id := files.AddVirtual(name, text)

	prog, perrs := asm.Parse(files.Get(id))
	if perrs != nil {
		return nil, &LoadError{Files: files, File: id, Bag: asm.Diagnostics(files, id, perrs)}
	}
	img, cerrs := asm.Compile(prog)
	if cerrs != nil {
		return nil, &LoadError{Files: files, File: id, Bag: asm.Diagnostics(files, id, cerrs)}
	}

	queue := device.NewQueue(input...)
	mach := machine.New(img.Words, queue)
	if err := mach.Run(); err != nil {
		return nil, err
	}
	return queue.OutputLog(), nil
}
