package native

// The Windows x64 convention passes a 16-byte struct by reference.
func onIMERect(rect *Rect, ctx uintptr) uintptr {
	if rect != nil {
		dispatchIMERect(*rect, ctx)
	}
	return 0
}
