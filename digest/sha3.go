package digest

import (
	"encoding/hex"
	"math/bits"
)

// Size is the digest length in bytes (512 bits).
const Size = 64

// rate is the sponge rate for the 512-bit instance: 1600 - 2*512 bits.
const rate = 72

// roundConstants is the standard Keccak iota round constant table.
var roundConstants = [24]uint64{
	0x0000000000000001, 0x0000000000008082,
	0x800000000000808a, 0x8000000080008000,
	0x000000000000808b, 0x0000000080000001,
	0x8000000080008081, 0x8000000000008009,
	0x000000000000008a, 0x0000000000000088,
	0x0000000080008009, 0x000000008000000a,
	0x000000008000808b, 0x800000000000008b,
	0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080,
	0x000000000000800a, 0x800000008000000a,
	0x8000000080008081, 0x8000000000008080,
	0x0000000080000001, 0x8000000080008008,
}

// rhoOffsets holds the per-lane rotation amounts, indexed by 5*y + x.
var rhoOffsets = [25]int{
	0, 1, 62, 28, 27,
	36, 44, 6, 55, 20,
	3, 10, 43, 25, 39,
	41, 45, 15, 21, 8,
	18, 2, 61, 56, 14,
}

// piLanes maps source lane 5*y+x to its destination lane (y, 2x+3y).
var piLanes = [25]int{
	0, 10, 20, 5, 15,
	16, 1, 11, 21, 6,
	7, 17, 2, 12, 22,
	23, 8, 18, 3, 13,
	14, 24, 9, 19, 4,
}

// keccakF1600 applies the 24-round Keccak-f[1600] permutation in place.
func keccakF1600(a *[25]uint64) {
	var c, d [5]uint64
	var b [25]uint64

	for round := 0; round < 24; round++ {
		// theta
		for x := 0; x < 5; x++ {
			c[x] = a[x] ^ a[x+5] ^ a[x+10] ^ a[x+15] ^ a[x+20]
		}
		for x := 0; x < 5; x++ {
			d[x] = c[(x+4)%5] ^ bits.RotateLeft64(c[(x+1)%5], 1)
		}
		for x := 0; x < 5; x++ {
			for y := 0; y < 25; y += 5 {
				a[y+x] ^= d[x]
			}
		}

		// rho and pi
		for i := 0; i < 25; i++ {
			b[piLanes[i]] = bits.RotateLeft64(a[i], rhoOffsets[i])
		}

		// chi
		for y := 0; y < 25; y += 5 {
			for x := 0; x < 5; x++ {
				a[y+x] = b[y+x] ^ (^b[y+(x+1)%5] & b[y+(x+2)%5])
			}
		}

		// iota
		a[0] ^= roundConstants[round]
	}
}

// Sum computes the SHA3-512 digest of input and returns it as 128 lowercase
// hex characters. Go strings are already UTF-8, so the raw bytes are
// absorbed as-is.
func Sum(input string) string {
	return SumBytes([]byte(input))
}

// SumBytes computes the SHA3-512 digest of the given bytes, hex encoded.
func SumBytes(input []byte) string {
	var state [25]uint64

	// Absorb whole rate-sized blocks.
	for len(input) >= rate {
		xorIn(&state, input[:rate])
		keccakF1600(&state)
		input = input[rate:]
	}

	// Final block with multi-rate padding: the 0x06 SHA-3 domain separator
	// after the message and the top bit of the last rate byte.
	var block [rate]byte
	copy(block[:], input)
	block[len(input)] = 0x06
	block[rate-1] |= 0x80
	xorIn(&state, block[:])
	keccakF1600(&state)

	// Squeeze: 512 bits fit inside a single 576-bit rate, so no further
	// permutation is required.
	out := make([]byte, Size)
	for i := 0; i < Size/8; i++ {
		lane := state[i]
		for j := 0; j < 8; j++ {
			out[i*8+j] = byte(lane >> (8 * j))
		}
	}
	return hex.EncodeToString(out)
}

// xorIn absorbs one rate-sized block into the state, little-endian per lane.
func xorIn(state *[25]uint64, block []byte) {
	for i := 0; i < rate/8; i++ {
		var lane uint64
		for j := 0; j < 8; j++ {
			lane |= uint64(block[i*8+j]) << (8 * j)
		}
		state[i] ^= lane
	}
}
