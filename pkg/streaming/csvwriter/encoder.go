package csvwriter

import "strings"

// encoder turns formatted field values into delimited lines.
type encoder struct {
	delimiter  string
	quote      string
	terminator string
	special    string // characters that force quoting
}

func newEncoder(c Config) encoder {
	return encoder{
		delimiter:  c.Delimiter,
		quote:      c.Quote,
		terminator: c.Terminator,
		special:    c.Delimiter + c.Quote + c.Terminator + "\r\n",
	}
}

// appendLine appends fields joined by the delimiter plus the terminator to dst.
func (e encoder) appendLine(dst []byte, fields []string) []byte {
	for i, f := range fields {
		if i > 0 {
			dst = append(dst, e.delimiter...)
		}
		dst = e.appendField(dst, f)
	}
	// A lone empty field would otherwise read back as a blank line.
	if len(fields) == 1 && fields[0] == "" {
		dst = append(dst, e.quote...)
		dst = append(dst, e.quote...)
	}
	return append(dst, e.terminator...)
}

func (e encoder) appendField(dst []byte, f string) []byte {
	if !e.needsQuotes(f) {
		return append(dst, f...)
	}

	dst = append(dst, e.quote...)
	for {
		i := strings.Index(f, e.quote)
		if i < 0 {
			break
		}
		dst = append(dst, f[:i+len(e.quote)]...)
		dst = append(dst, e.quote...)
		f = f[i+len(e.quote):]
	}
	dst = append(dst, f...)
	return append(dst, e.quote...)
}

func (e encoder) needsQuotes(f string) bool {
	if f == "" {
		return false
	}
	return strings.ContainsAny(f, e.special)
}
