package wasmtest

// Layout of the spectrum-style modules built by ABIModule.
const (
	InPtr  = 1024
	OutPtr = 2048
)

// ABIOptions tunes the module built by ABIModule.
type ABIOptions struct {
	// OutLen is the value returned by freq_out_len.
	OutLen int32
	// GrowPages is added to memory at the start of every process_samples.
	GrowPages int32
	// ExportMemory defines and exports the memory instead of importing
	// env.memory.
	ExportMemory bool
	// RateType is the parameter type of set_sample_rate; I32 by default.
	RateType byte
	// TrapOnProcess makes process_samples execute unreachable.
	TrapOnProcess bool
	// Omit leaves the named export out.
	Omit string
	// MinPages is the memory's declared minimum; 1 by default.
	MinPages uint32
}

// ABIModule returns a module implementing the processing ABI whose
// process_samples copies min(OutLen, 128) input samples to the output window.
// It also exports sample_rate() returning the last i32 rate it was given.
func ABIModule(opts ABIOptions) []byte {
	if opts.RateType == 0 {
		opts.RateType = I32
	}
	if opts.MinPages == 0 {
		opts.MinPages = 1
	}
	copyLen := opts.OutLen
	if copyLen > 128 {
		copyLen = 128
	}

	process := []byte{}
	if opts.TrapOnProcess {
		process = Unreachable()
	} else {
		if opts.GrowPages > 0 {
			process = Seq(process, I32Const(opts.GrowPages), MemoryGrow(), Drop())
		}
		process = Seq(process, I32Const(OutPtr), I32Const(InPtr), I32Const(copyLen*4), MemoryCopy())
	}

	setRate := Seq(LocalGet(0), GlobalSet(0))
	switch opts.RateType {
	case F64:
		setRate = Seq(LocalGet(0), I32TruncF64U(), GlobalSet(0))
	case I32:
	default:
		// Other widths are accepted and discarded.
		setRate = Seq(LocalGet(0), Drop())
	}

	funcs := []Func{
		{Export: "sample_in_ptr", Results: []byte{I32}, Body: I32Const(InPtr)},
		{Export: "freq_out_ptr", Results: []byte{I32}, Body: I32Const(OutPtr)},
		{Export: "freq_out_len", Results: []byte{I32}, Body: I32Const(opts.OutLen)},
		{Export: "set_sample_rate", Params: []byte{opts.RateType}, Body: setRate},
		{Export: "process_samples", Body: process},
		{Export: "sample_rate", Results: []byte{I32}, Body: GlobalGet(0)},
		{Export: "memory_pages", Results: []byte{I32}, Body: MemorySize()},
	}
	for i := range funcs {
		if funcs[i].Export == opts.Omit {
			funcs[i].Export = ""
		}
	}

	m := Module{
		Globals: []Global{{Init: 0}},
		Funcs:   funcs,
	}
	if opts.ExportMemory {
		m.Memory = &Limits{Min: opts.MinPages}
	} else {
		m.ImportMemory = &Limits{Min: opts.MinPages}
	}
	return m.Encode()
}
