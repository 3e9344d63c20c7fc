package xmltext

import (
	"bytes"
	"unicode/utf16"
	"unicode/utf8"
)

// Prepare converts an XML byte buffer into the canonical scan form:
// UTF-16 input (detected by BOM) is transcoded to UTF-8, a UTF-8 BOM
// is dropped, and line endings are normalized per XML 1.0 section 2.11
// ("\r\n" and bare "\r" become "\n").
//
// The returned slice aliases input when no rewrite was required;
// callers that need ownership must treat it as the document buffer.
func Prepare(input []byte) []byte {
	if len(input) >= 2 {
		if input[0] == 0xFE && input[1] == 0xFF {
			input = decodeUTF16(input[2:], true)
		} else if input[0] == 0xFF && input[1] == 0xFE {
			input = decodeUTF16(input[2:], false)
		}
	}
	if len(input) >= 3 && input[0] == 0xEF && input[1] == 0xBB && input[2] == 0xBF {
		input = input[3:]
	}
	return normalizeNewlines(input)
}

func decodeUTF16(data []byte, bigEndian bool) []byte {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		var u uint16
		if bigEndian {
			u = uint16(data[i])<<8 | uint16(data[i+1])
		} else {
			u = uint16(data[i+1])<<8 | uint16(data[i])
		}
		units = append(units, u)
	}
	runes := utf16.Decode(units)
	out := make([]byte, 0, len(runes))
	for _, r := range runes {
		out = utf8.AppendRune(out, r)
	}
	return out
}

func normalizeNewlines(input []byte) []byte {
	if bytes.IndexByte(input, '\r') < 0 {
		return input
	}
	out := make([]byte, 0, len(input))
	for i := 0; i < len(input); i++ {
		b := input[i]
		if b != '\r' {
			out = append(out, b)
			continue
		}
		out = append(out, '\n')
		if i+1 < len(input) && input[i+1] == '\n' {
			i++
		}
	}
	return out
}
