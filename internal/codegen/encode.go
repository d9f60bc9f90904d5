package codegen

import "math/big"

// encodeInt picks the narrowest PUSHINT* mnemonic that holds n in
// two's-complement form and returns its little-endian immediate bytes.
func encodeInt(n *big.Int) (string, []byte) {
	widths := []struct {
		name string
		bits int
	}{
		{"PUSHINT8", 8},
		{"PUSHINT16", 16},
		{"PUSHINT32", 32},
		{"PUSHINT64", 64},
		{"PUSHINT128", 128},
		{"PUSHINT256", 256},
	}
	for _, w := range widths {
		if fitsSigned(n, w.bits) {
			return w.name, twosComplementLE(n, w.bits/8)
		}
	}
	return "PUSHINT256", twosComplementLE(n, 32)
}

func fitsSigned(n *big.Int, bits int) bool {
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	min := new(big.Int).Neg(limit)
	max := new(big.Int).Sub(limit, big.NewInt(1))
	return n.Cmp(min) >= 0 && n.Cmp(max) <= 0
}

// twosComplementLE renders n as a little-endian two's-complement byte
// string of the given width.
func twosComplementLE(n *big.Int, width int) []byte {
	out := make([]byte, width)
	if n.Sign() >= 0 {
		b := n.Bytes() // big-endian magnitude
		for i := 0; i < len(b) && i < width; i++ {
			out[i] = b[len(b)-1-i]
		}
		return out
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
	twos := new(big.Int).Add(n, mod)
	b := twos.Bytes()
	for i := 0; i < len(b) && i < width; i++ {
		out[i] = b[len(b)-1-i]
	}
	return out
}

// encodeData picks the narrowest PUSHDATA* mnemonic for a byte string
// plus its length-prefixed immediate.
func encodeData(data []byte) (string, []byte) {
	n := len(data)
	switch {
	case n <= 0xFF:
		return "PUSHDATA1", append([]byte{byte(n)}, data...)
	case n <= 0xFFFF:
		imm := make([]byte, 2+n)
		imm[0] = byte(n)
		imm[1] = byte(n >> 8)
		copy(imm[2:], data)
		return "PUSHDATA2", imm
	default:
		imm := make([]byte, 4+n)
		imm[0] = byte(n)
		imm[1] = byte(n >> 8)
		imm[2] = byte(n >> 16)
		imm[3] = byte(n >> 24)
		copy(imm[4:], data)
		return "PUSHDATA4", imm
	}
}
