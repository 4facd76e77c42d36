//go:build !windows

package native

// System V amd64 and AAPCS64 pass a 16-byte struct of four ints in two
// integer registers: x and y in the first, width and height in the second.
func onIMERect(xy, wh uint64, ctx uintptr) uintptr {
	dispatchIMERect(Rect{
		X:      int32(uint32(xy)),
		Y:      int32(uint32(xy >> 32)),
		Width:  int32(uint32(wh)),
		Height: int32(uint32(wh >> 32)),
	}, ctx)
	return 0
}
