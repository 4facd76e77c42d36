package native

import (
	"runtime"
	"strings"
	"unsafe"
)

// Strings owns NUL-terminated copies of Go strings handed to the engine.
// The copies stay valid until Release.
type Strings struct {
	pinner runtime.Pinner
	bufs   [][]byte
}

// Ptr copies v into a pinned NUL-terminated buffer and returns its address.
func (s *Strings) Ptr(v string) uintptr {
	b := CString(v)
	s.pinner.Pin(&b[0])
	s.bufs = append(s.bufs, b)
	return uintptr(unsafe.Pointer(&b[0]))
}

// Release unpins every buffer. Pointers returned by Ptr are invalid afterwards.
func (s *Strings) Release() {
	s.pinner.Unpin()
	s.bufs = nil
}

// CString returns v as a NUL-terminated byte slice.
func CString(v string) []byte {
	b := make([]byte, len(v)+1)
	copy(b, v)
	return b
}

// HasNUL reports whether v contains an embedded NUL byte.
func HasNUL(v string) bool {
	return strings.IndexByte(v, 0) >= 0
}

// GoString copies a NUL-terminated C string. A zero pointer yields "".
func GoString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

// Bytes returns a view of n bytes at p without copying.
func Bytes(p uintptr, n int) []byte {
	if p == 0 || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}

// argv builds a C argv array for args. The returned Strings must be released
// once the call that consumed argv has returned.
func argv(args []string) (*Strings, []uintptr) {
	s := &Strings{}
	ptrs := make([]uintptr, 0, len(args)+1)
	for _, a := range args {
		ptrs = append(ptrs, s.Ptr(a))
	}
	ptrs = append(ptrs, 0)
	return s, ptrs
}
