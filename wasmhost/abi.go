package wasmhost

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Exported function names of the processing ABI.
const (
	ExportSampleInPtr    = "sample_in_ptr"
	ExportFreqOutPtr     = "freq_out_ptr"
	ExportFreqOutLen     = "freq_out_len"
	ExportSetSampleRate  = "set_sample_rate"
	ExportProcessSamples = "process_samples"
)

const wasiModuleName = "wasi_snapshot_preview1"

// Signature is a function type.
type Signature struct {
	Params  []api.ValueType
	Results []api.ValueType
}

func (s Signature) String() string {
	return "(" + typeList(s.Params) + ") -> (" + typeList(s.Results) + ")"
}

func typeList(ts []api.ValueType) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}

// ABI describes how a compiled module lines up with the processing ABI.
type ABI struct {
	Functions map[string]Signature

	ImportsMemory bool
	ExportsMemory bool
	MemoryMin     uint32
	MemoryMax     uint32
	HasMemoryMax  bool

	// WASI is set when the module imports wasi_snapshot_preview1.
	WASI bool
}

// Names returns the exported function names in sorted order.
func (a ABI) Names() []string {
	names := make([]string, 0, len(a.Functions))
	for name := range a.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RateType returns the parameter type of set_sample_rate.
func (a ABI) RateType() api.ValueType {
	sig, ok := a.Functions[ExportSetSampleRate]
	if !ok || len(sig.Params) != 1 {
		return api.ValueTypeI32
	}
	return sig.Params[0]
}

// Validate checks the exports and memory against the processing ABI.
func (a ABI) Validate() error {
	for _, name := range []string{ExportSampleInPtr, ExportFreqOutPtr, ExportFreqOutLen} {
		sig, ok := a.Functions[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingExport, name)
		}
		if len(sig.Params) != 0 || len(sig.Results) != 1 || !isInteger(sig.Results[0]) {
			return fmt.Errorf("%w: %s%s, want () -> (i32)", ErrBadSignature, name, sig)
		}
	}

	sig, ok := a.Functions[ExportSetSampleRate]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingExport, ExportSetSampleRate)
	}
	if len(sig.Params) != 1 || len(sig.Results) > 1 {
		return fmt.Errorf("%w: %s%s, want one numeric parameter", ErrBadSignature, ExportSetSampleRate, sig)
	}

	sig, ok = a.Functions[ExportProcessSamples]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingExport, ExportProcessSamples)
	}
	if len(sig.Params) != 0 || len(sig.Results) > 1 {
		return fmt.Errorf("%w: %s%s, want () -> ()", ErrBadSignature, ExportProcessSamples, sig)
	}

	if !a.ImportsMemory && !a.ExportsMemory {
		return ErrNoMemory
	}
	return nil
}

func isInteger(t api.ValueType) bool {
	return t == api.ValueTypeI32 || t == api.ValueTypeI64
}

func inspect(cm wazero.CompiledModule) ABI {
	abi := ABI{Functions: make(map[string]Signature)}

	for name, def := range cm.ExportedFunctions() {
		abi.Functions[name] = Signature{Params: def.ParamTypes(), Results: def.ResultTypes()}
	}

	for _, def := range cm.ImportedMemories() {
		mod, name, _ := def.Import()
		if mod != "env" || name != "memory" {
			continue
		}
		abi.ImportsMemory = true
		abi.MemoryMin = def.Min()
		abi.MemoryMax, abi.HasMemoryMax = def.Max()
	}

	if def, ok := cm.ExportedMemories()["memory"]; ok {
		abi.ExportsMemory = true
		if !abi.ImportsMemory {
			abi.MemoryMin = def.Min()
			abi.MemoryMax, abi.HasMemoryMax = def.Max()
		}
	}

	for _, def := range cm.ImportedFunctions() {
		if mod, _, _ := def.Import(); mod == wasiModuleName {
			abi.WASI = true
			break
		}
	}

	return abi
}
