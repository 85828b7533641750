package signature

import (
	"math/big"
)

const (
	derSequenceTag = 0x30
	derIntegerTag  = 0x02
	// minDERLength is the smallest buffer accepted as a signature candidate.
	minDERLength = 8
)

// ParseDER decodes the r and s integers of a DER encoded ECDSA signature.
// Only tags and lengths are checked; the sequence length byte itself is skipped.
func ParseDER(b []byte) (r, s *big.Int, ok bool) {
	if len(b) < minDERLength || b[0] != derSequenceTag {
		return nil, nil, false
	}

	pos := 2
	rBytes, pos, ok := readInteger(b, pos)
	if !ok {
		return nil, nil, false
	}
	sBytes, _, ok := readInteger(b, pos)
	if !ok {
		return nil, nil, false
	}

	return new(big.Int).SetBytes(rBytes), new(big.Int).SetBytes(sBytes), true
}

func readInteger(b []byte, pos int) ([]byte, int, bool) {
	if pos+1 >= len(b) || b[pos] != derIntegerTag {
		return nil, pos, false
	}
	length := int(b[pos+1])
	pos += 2
	if pos+length > len(b) {
		return nil, pos, false
	}
	return b[pos : pos+length], pos + length, true
}

// EncodeDER builds a minimal DER signature from big-endian r and s bytes.
// Leading zeros are trimmed and a zero byte is prepended when the high bit is set.
func EncodeDER(r, s []byte) []byte {
	rEnc := minimalInteger(r)
	sEnc := minimalInteger(s)

	out := make([]byte, 0, 6+len(rEnc)+len(sEnc))
	out = append(out, derSequenceTag, byte(4+len(rEnc)+len(sEnc)))
	out = append(out, derIntegerTag, byte(len(rEnc)))
	out = append(out, rEnc...)
	out = append(out, derIntegerTag, byte(len(sEnc)))
	out = append(out, sEnc...)
	return out
}

func minimalInteger(b []byte) []byte {
	for len(b) > 1 && b[0] == 0 {
		b = b[1:]
	}
	if len(b) == 0 {
		return []byte{0}
	}
	if b[0]&0x80 != 0 {
		return append([]byte{0}, b...)
	}
	return append([]byte(nil), b...)
}
