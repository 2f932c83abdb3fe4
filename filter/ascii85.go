package filter

import (
	"bytes"
	"fmt"
)

// decodeASCII85 decodes the format's ASCII85Decode filter: Adobe's
// variant of the standard Ascii85 encoding, terminated by the
// two-byte sequence "~>" rather than the generic encoding's lack of a
// terminator, and with the "z" shorthand for four zero bytes.
func decodeASCII85(data []byte) ([]byte, error) {
	var out bytes.Buffer
	var group [5]byte
	n := 0

	flush := func(count int) error {
		if count == 0 {
			return nil
		}
		for i := count; i < 5; i++ {
			group[i] = '!' + 84 // 'u', the maximum digit, pads with the highest value
		}
		var v uint32
		for i := 0; i < 5; i++ {
			d := group[i] - '!'
			if d > 84 {
				return fmt.Errorf("ascii85: invalid digit %q", group[i])
			}
			v = v*85 + uint32(d)
		}
		buf := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
		out.Write(buf[:count-1])
		return nil
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '~':
			goto done
		case c == 'z' && n == 0:
			out.Write([]byte{0, 0, 0, 0})
		case c == '\n' || c == '\r' || c == ' ' || c == '\t' || c == 0x0c || c == 0x00:
			// whitespace is ignored anywhere in the stream
		default:
			group[n] = c
			n++
			if n == 5 {
				if err := flush(5); err != nil {
					return nil, err
				}
				n = 0
			}
		}
	}
done:
	if n > 0 {
		if err := flush(n); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

func encodeASCII85(data []byte) []byte {
	var out bytes.Buffer
	for i := 0; i < len(data); i += 4 {
		chunk := data[i:min(i+4, len(data))]
		var buf [4]byte
		copy(buf[:], chunk)
		v := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
		if len(chunk) == 4 && v == 0 {
			out.WriteByte('z')
			continue
		}
		var digits [5]byte
		for j := 4; j >= 0; j-- {
			digits[j] = byte(v%85) + '!'
			v /= 85
		}
		out.Write(digits[:len(chunk)+1])
	}
	out.WriteString("~>")
	return out.Bytes()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
