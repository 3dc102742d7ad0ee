package wasmhost

// envMemoryModule encodes a module that only defines and exports a memory
// named "memory" with the given limits. Instantiated as "env" it satisfies a
// guest's env.memory import.
func envMemoryModule(minPages, maxPages uint32, hasMax bool) []byte {
	limits := []byte{0x00}
	if hasMax {
		limits[0] = 0x01
	}
	limits = appendULEB(limits, minPages)
	if hasMax {
		limits = appendULEB(limits, maxPages)
	}

	memSec := append([]byte{0x01}, limits...)
	expSec := []byte{0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00}

	bin := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	bin = append(bin, 0x05)
	bin = appendULEB(bin, uint32(len(memSec)))
	bin = append(bin, memSec...)
	bin = append(bin, 0x07)
	bin = appendULEB(bin, uint32(len(expSec)))
	return append(bin, expSec...)
}

func appendULEB(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b = append(b, c)
		if v == 0 {
			return b
		}
	}
}
