package wasmtest

// I32Const pushes v.
func I32Const(v int32) []byte {
	return appendS64([]byte{0x41}, int64(v))
}

// LocalGet pushes local idx.
func LocalGet(idx uint32) []byte {
	return appendU32([]byte{0x20}, idx)
}

// GlobalGet pushes global idx.
func GlobalGet(idx uint32) []byte {
	return appendU32([]byte{0x23}, idx)
}

// GlobalSet pops into global idx.
func GlobalSet(idx uint32) []byte {
	return appendU32([]byte{0x24}, idx)
}

// MemoryGrow pops a page delta and pushes the previous size or -1.
func MemoryGrow() []byte {
	return []byte{0x40, 0x00}
}

// MemorySize pushes the current size in pages.
func MemorySize() []byte {
	return []byte{0x3f, 0x00}
}

// MemoryCopy pops dst, src and length and copies bytes (bulk memory).
func MemoryCopy() []byte {
	return []byte{0xfc, 0x0a, 0x00, 0x00}
}

// Drop discards the top of the stack.
func Drop() []byte {
	return []byte{0x1a}
}

// Unreachable traps.
func Unreachable() []byte {
	return []byte{0x00}
}

// I32TruncF64U converts an f64 to an unsigned i32.
func I32TruncF64U() []byte {
	return []byte{0xab}
}

// Seq concatenates instruction sequences.
func Seq(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
