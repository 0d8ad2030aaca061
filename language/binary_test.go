package language

import (
	"bytes"
	"testing"
)

func Test_IsBinary_TextFile(t *testing.T) {
	if IsBinary([]byte("Hello, this is a text file\nwith multiple lines\n")) {
		t.Error("expected text content to not be detected as binary")
	}
}

func Test_IsBinary_BinaryFile(t *testing.T) {
	content := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}
	if !IsBinary(content) {
		t.Error("expected PNG header to be detected as binary")
	}
}

func Test_IsBinary_EmptyFile(t *testing.T) {
	if IsBinary(nil) {
		t.Error("expected empty content to not be detected as binary")
	}
}

func Test_IsBinary_NulBeyondSniffWindow(t *testing.T) {
	content := append(bytes.Repeat([]byte("a"), SniffLen), 0x00)
	if IsBinary(content) {
		t.Error("NUL after the sniff window should be ignored")
	}
	content[SniffLen-1] = 0x00
	if !IsBinary(content) {
		t.Error("NUL inside the sniff window should be detected")
	}
}
