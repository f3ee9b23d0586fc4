package tabular

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// utf8BOM is the byte order mark Excel and other Windows tools prepend to CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DefaultMaxBytes caps how much ReadTable will buffer (32MB).
const DefaultMaxBytes = 32 << 20

// Normalize strips a leading UTF-8 BOM and replaces invalid UTF-8 sequences
// with '?', keeping the byte length stable for single bad bytes.
func Normalize(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "?")
}

// ReadTable reads an entire table from r and parses it.
// maxBytes <= 0 means DefaultMaxBytes. Reading more than the limit is an error;
// parsing itself never fails.
func ReadTable(r io.Reader, maxBytes int64) (Table, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return Table{}, fmt.Errorf("read table: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return Table{}, fmt.Errorf("file too large: table exceeds %d bytes", maxBytes)
	}

	return Parse(Normalize(data)), nil
}
