package kernel

import (
	"reflect"
	"unsafe"
)

// Memset sets size bytes starting at addr to value. Its one caller is the
// frame pool, which fills a new pool's bitmap with 0xFF (every frame FREE)
// through the bitmap's backing address, so this operates on a raw address
// rather than a []byte. The implementation mirrors bytes.Repeat: after
// seeding the first byte it doubles the filled region on each iteration
// instead of looping byte by byte.
func Memset(addr uintptr, value byte, size uintptr) {
	if size == 0 {
		return
	}

	target := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: addr,
	}))

	target[0] = value
	for index := uintptr(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}

// ByteSliceAt overlays a []byte of the given length onto a raw physical or
// (identity-mapped) virtual address. The frame pool uses it to address its
// bitmap, which lives at a frame address rather than behind a Go-managed
// slice. (The VM pool overlays its region-record array with its own cast.)
func ByteSliceAt(addr uintptr, size int) []byte {
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  size,
		Cap:  size,
		Data: addr,
	}))
}
