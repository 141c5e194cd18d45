package wad

import (
	"errors"
	"fmt"
)

var errJaguarTruncated = errors.New("jaguar stream truncated")

// jaguarDecode expands an Atari Jaguar Doom lump. The stream is LZSS: an id byte supplies one
// flag bit per following item, low bit first. A clear bit is a literal byte; a set bit is a
// two-byte back-reference with a 12-bit distance and a 4-bit length, where length 1 ends the
// stream. The result is always size bytes long; an error reports a stream that ran short,
// referenced data before the start or did not produce exactly size bytes.
func jaguarDecode(in []byte, size int) ([]byte, error) {
	out := make([]byte, 0, size)
	var idbyte byte
	get := 0
	i := 0
	var err error

loop:
	for {
		// Fetch a new id byte every eight items
		if get == 0 {
			if i >= len(in) {
				err = errJaguarTruncated
				break
			}
			idbyte = in[i]
			i++
		}
		get = (get + 1) & 7

		if idbyte&1 != 0 {
			if i+1 >= len(in) {
				err = errJaguarTruncated
				break
			}
			pos := int(in[i])<<4 | int(in[i+1])>>4
			n := int(in[i+1]&0xf) + 1
			i += 2
			if n == 1 {
				break
			}
			src := len(out) - pos - 1
			if src < 0 {
				err = fmt.Errorf("jaguar back-reference %d before start of output", pos)
				break
			}
			for k := 0; k < n; k++ {
				if len(out) >= size {
					break loop
				}
				out = append(out, out[src+k])
			}
		} else {
			if i >= len(in) {
				err = errJaguarTruncated
				break
			}
			if len(out) >= size {
				break
			}
			out = append(out, in[i])
			i++
		}
		idbyte >>= 1
	}

	if err == nil && len(out) != size {
		err = fmt.Errorf("jaguar stream produced %d bytes, want %d", len(out), size)
	}
	if len(out) < size {
		out = append(out, make([]byte, size-len(out))...)
	}
	return out, err
}
