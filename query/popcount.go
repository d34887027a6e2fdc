package query

// byteBitTable[b*8+i] is 1 if bit i of byte value b is set, else 0.
// This is the "vectorized" path spec.md describes: a flat 2048-entry
// table indexed by the full byte value, trading a branch per bit for a
// table lookup.
var byteBitTable = buildByteBitTable()

func buildByteBitTable() [2048]uint16 {
	var t [2048]uint16
	for b := 0; b < 256; b++ {
		for i := 0; i < 8; i++ {
			if b&(1<<uint(i)) != 0 {
				t[b*8+i] = 1
			}
		}
	}
	return t
}

// nibbleLaneTable[n] packs 4 16-bit lanes (one per bit of the nibble n)
// into a single uint64: lane j occupies bits [16j, 16j+16) and is 1 if
// bit j of n is set, else 0. addByteNibble below unpacks these lanes with
// plain shifts; the point (per spec.md's "unvectorized fallback") is
// that the lookup itself replaces four individual bit tests with one
// table read, even without real SIMD lanes underneath.
var nibbleLaneTable = buildNibbleLaneTable()

func buildNibbleLaneTable() [16]uint64 {
	var t [16]uint64
	for n := 0; n < 16; n++ {
		var v uint64
		for j := 0; j < 4; j++ {
			if n&(1<<uint(j)) != 0 {
				v |= uint64(1) << (16 * uint(j))
			}
		}
		t[n] = v
	}
	return t
}

// addByteVectorized adds 1 to counters[base+i] for every set bit i of
// b, using the 2048-entry byte table.
func addByteVectorized(counters []uint16, base int, b byte) {
	off := int(b) * 8
	counters[base+0] += byteBitTable[off+0]
	counters[base+1] += byteBitTable[off+1]
	counters[base+2] += byteBitTable[off+2]
	counters[base+3] += byteBitTable[off+3]
	counters[base+4] += byteBitTable[off+4]
	counters[base+5] += byteBitTable[off+5]
	counters[base+6] += byteBitTable[off+6]
	counters[base+7] += byteBitTable[off+7]
}

// addByteNibble is the portable fallback: two 16-entry nibble table
// lookups instead of one 256-entry byte lookup, each unpacked into its
// four 16-bit lanes.
func addByteNibble(counters []uint16, base int, b byte) {
	lo := nibbleLaneTable[b&0x0F]
	hi := nibbleLaneTable[b>>4]
	counters[base+0] += uint16(lo)
	counters[base+1] += uint16(lo >> 16)
	counters[base+2] += uint16(lo >> 32)
	counters[base+3] += uint16(lo >> 48)
	counters[base+4] += uint16(hi)
	counters[base+5] += uint16(hi >> 16)
	counters[base+6] += uint16(hi >> 32)
	counters[base+7] += uint16(hi >> 48)
}

// accumulateRow adds one hit row's bits into counters (length
// 8*len(row)), using the vectorized byte table.
func accumulateRow(counters []uint16, row []byte) {
	for i, b := range row {
		if b == 0 {
			continue
		}
		addByteVectorized(counters, i*8, b)
	}
}
