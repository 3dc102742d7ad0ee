package wasmtest

import (
	"bytes"
	"testing"
)

func TestLEB128(t *testing.T) {
	if got := appendU32(nil, 624485); !bytes.Equal(got, []byte{0xe5, 0x8e, 0x26}) {
		t.Fatalf("appendU32(624485) = % x", got)
	}
	if got := appendU32(nil, 0); !bytes.Equal(got, []byte{0x00}) {
		t.Fatalf("appendU32(0) = % x", got)
	}
	if got := appendS64(nil, -123456); !bytes.Equal(got, []byte{0xc0, 0xbb, 0x78}) {
		t.Fatalf("appendS64(-123456) = % x", got)
	}
	if got := appendS64(nil, 64); !bytes.Equal(got, []byte{0xc0, 0x00}) {
		t.Fatalf("appendS64(64) = % x", got)
	}
}

func TestEncodeHeaderAndSections(t *testing.T) {
	bin := Module{Memory: &Limits{Min: 1, Max: 2, HasMax: true}}.Encode()

	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x05, 0x04, 0x01, 0x01, 0x01, 0x02,
		0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	}
	if !bytes.Equal(bin, want) {
		t.Fatalf("Encode = % x\nwant     % x", bin, want)
	}
}

func TestABIModuleOmitsExport(t *testing.T) {
	full := ABIModule(ABIOptions{OutLen: 4})
	omitted := ABIModule(ABIOptions{OutLen: 4, Omit: "process_samples"})

	if !bytes.Contains(full, []byte("process_samples")) {
		t.Fatal("full module lacks process_samples export")
	}
	if bytes.Contains(omitted, []byte("process_samples")) {
		t.Fatal("omitted export still present")
	}
}
