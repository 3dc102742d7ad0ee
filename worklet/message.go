package worklet

// MessageType labels a message on either side of the port.
type MessageType string

const (
	// TypeWasm delivers a compiled module to the processor.
	TypeWasm MessageType = "wasm"
	// TypeSampleRate delivers the audio sample rate to the processor.
	TypeSampleRate MessageType = "sampleRate"
	// TypeFrequencies carries one block's output back to the control side.
	TypeFrequencies MessageType = "frequencies"
)

// Message is the envelope exchanged between the control side and the
// processor. Only the fields matching Type are meaningful.
type Message struct {
	Type MessageType

	// Module is set for TypeWasm.
	Module Descriptor
	// Rate is set for TypeSampleRate.
	Rate float64
	// Freqs is set for TypeFrequencies. The slice is owned by the receiver.
	Freqs []float32
}

// WasmMessage returns a TypeWasm message carrying d.
func WasmMessage(d Descriptor) Message {
	return Message{Type: TypeWasm, Module: d}
}

// SampleRateMessage returns a TypeSampleRate message carrying rate.
func SampleRateMessage(rate float64) Message {
	return Message{Type: TypeSampleRate, Rate: rate}
}
