package xmltext

import (
	"bytes"
	"unicode/utf8"
)

var predefinedEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": "\"",
}

// NeedsUnescape reports whether data contains an entity reference.
func NeedsUnescape(data []byte) bool {
	return bytes.IndexByte(data, '&') >= 0
}

// Unescape expands the five predefined entities and numeric character
// references in data. In strict mode unknown references and bare
// ampersands are errors; in lenient mode they are preserved verbatim.
func Unescape(data []byte, strict bool) ([]byte, error) {
	return AppendUnescaped(nil, data, strict)
}

// AppendUnescaped appends the unescaped form of data to dst.
func AppendUnescaped(dst, data []byte, strict bool) ([]byte, error) {
	for i := 0; i < len(data); {
		b := data[i]
		if b != '&' {
			dst = append(dst, b)
			i++
			continue
		}
		consumed, replacement, r, isNumeric, err := parseEntityRef(data, i)
		if err != nil {
			if strict {
				return nil, err
			}
			dst = append(dst, b)
			i++
			continue
		}
		if isNumeric {
			dst = utf8.AppendRune(dst, r)
		} else {
			dst = append(dst, replacement...)
		}
		i += consumed
	}
	return dst, nil
}

// validateEntities checks every entity reference in data without
// producing output. Used by the strict-mode scanner on text runs and
// attribute values.
func validateEntities(data []byte) error {
	for i := 0; i < len(data); {
		if data[i] != '&' {
			i++
			continue
		}
		consumed, _, _, _, err := parseEntityRef(data, i)
		if err != nil {
			return err
		}
		i += consumed
	}
	return nil
}

// parseEntityRef parses the reference starting at data[start] == '&'.
// It returns the number of bytes consumed and either a replacement
// string (named entity) or a rune (numeric reference).
func parseEntityRef(data []byte, start int) (int, string, rune, bool, error) {
	if start+1 >= len(data) {
		return 0, "", 0, false, errInvalidEntity
	}
	semi := bytes.IndexByte(data[start+1:], ';')
	if semi < 0 {
		return 0, "", 0, false, errInvalidEntity
	}
	semi += start + 1
	if semi == start+1 {
		return 0, "", 0, false, errInvalidEntity
	}
	ref := data[start+1 : semi]
	if ref[0] == '#' {
		r, err := parseNumericEntity(ref)
		if err != nil {
			return 0, "", 0, false, err
		}
		return semi - start + 1, "", r, true, nil
	}
	if err := ValidateName(ref); err != nil {
		return 0, "", 0, false, errInvalidEntity
	}
	replacement, ok := predefinedEntities[string(ref)]
	if !ok {
		return 0, "", 0, false, errInvalidEntity
	}
	return semi - start + 1, replacement, 0, false, nil
}

func parseNumericEntity(ref []byte) (rune, error) {
	if len(ref) < 2 {
		return 0, errInvalidCharRef
	}
	base := 10
	start := 1
	if ref[1] == 'x' || ref[1] == 'X' {
		base = 16
		start = 2
	}
	if start >= len(ref) {
		return 0, errInvalidCharRef
	}
	var value uint64
	for i := start; i < len(ref); i++ {
		b := ref[i]
		var digit byte
		switch {
		case b >= '0' && b <= '9':
			digit = b - '0'
		case base == 16 && b >= 'a' && b <= 'f':
			digit = b - 'a' + 10
		case base == 16 && b >= 'A' && b <= 'F':
			digit = b - 'A' + 10
		default:
			return 0, errInvalidCharRef
		}
		value = value*uint64(base) + uint64(digit)
		if value > utf8.MaxRune {
			return 0, errInvalidCharRef
		}
	}
	r := rune(value)
	if r == 0 || (r >= 0xD800 && r <= 0xDFFF) {
		return 0, errInvalidCharRef
	}
	if !isValidXMLChar(r) {
		return 0, errInvalidCharRef
	}
	return r, nil
}
