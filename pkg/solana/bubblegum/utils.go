package bubblegum

import (
	"crypto/ed25519"
	"encoding/binary"
)

func putDiscriminator(dst []byte, v []byte, offset *int) {
	copy(dst[*offset:], v)
	*offset += 8
}
func getDiscriminator(src []byte, dst *[]byte, offset *int) {
	*dst = make([]byte, 8)
	copy(*dst, src[*offset:])
	*offset += 8
}

func getKey(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:])
	*offset += ed25519.PublicKeySize
}

func putUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst[*offset:], v)
	*offset += 4
}

func putOptionalBool(dst []byte, v *bool, offset *int) {
	if v == nil {
		dst[*offset] = 0
		*offset += 1
		return
	}

	dst[*offset] = 1
	if *v {
		dst[*offset+1] = 1
	}
	*offset += 2
}

func getUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
}

func getBool(src []byte, dst *bool, offset *int) {
	*dst = src[*offset] != 0
	*offset += 1
}

func getUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[*offset]
	*offset += 1
}
