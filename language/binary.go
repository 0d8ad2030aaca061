package language

import "bytes"

// SniffLen is how many leading bytes are inspected for binary detection.
const SniffLen = 512

// IsBinary reports whether the leading SniffLen bytes of data contain a NUL.
func IsBinary(data []byte) bool {
	if len(data) > SniffLen {
		data = data[:SniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}
