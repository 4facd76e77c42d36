package wew

import "github.com/bnema/wew/internal/native"

// WebViewState is the page lifecycle reported by the engine. Pages move
// BeforeLoad, Loaded, RequestClose, Close, with LoadError possibly following
// BeforeLoad. Close is terminal.
type WebViewState int32

const (
	BeforeLoad   WebViewState = WebViewState(native.StateBeforeLoad)
	Loaded       WebViewState = WebViewState(native.StateLoaded)
	LoadError    WebViewState = WebViewState(native.StateLoadError)
	RequestClose WebViewState = WebViewState(native.StateRequestClose)
	Close        WebViewState = WebViewState(native.StateClose)
)

func webViewStateFromNative(v int32) (WebViewState, bool) {
	if v < native.StateBeforeLoad || v > native.StateClose {
		return 0, false
	}
	return WebViewState(v), true
}

func (s WebViewState) native() int32 { return int32(s) }

func (s WebViewState) String() string {
	switch s {
	case BeforeLoad:
		return "before-load"
	case Loaded:
		return "loaded"
	case LoadError:
		return "load-error"
	case RequestClose:
		return "request-close"
	case Close:
		return "close"
	default:
		return "unknown"
	}
}

// Rect is a pixel rectangle.
type Rect struct {
	X      uint32
	Y      uint32
	Width  uint32
	Height uint32
}

func rectFromNative(r native.Rect) Rect {
	return Rect{X: uint32(r.X), Y: uint32(r.Y), Width: uint32(r.Width), Height: uint32(r.Height)}
}

// Cursor is the engine cursor type requested for a windowless webview.
// Values follow the engine's cursor table; the common ones are named.
type Cursor int32

const (
	CursorPointer Cursor = iota
	CursorCross
	CursorHand
	CursorIBeam
	CursorWait
	CursorHelp
)

// Position is a point in webview coordinates.
type Position struct {
	X int32
	Y int32
}

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
)

func (b MouseButton) native() native.MouseButton {
	switch b {
	case MouseMiddle:
		return native.MouseButtonMiddle
	case MouseRight:
		return native.MouseButtonRight
	default:
		return native.MouseButtonLeft
	}
}

func (b MouseButton) flag() uint32 {
	switch b {
	case MouseMiddle:
		return native.EventFlagMiddleMouseButton
	case MouseRight:
		return native.EventFlagRightMouseButton
	default:
		return native.EventFlagLeftMouseButton
	}
}

// MouseEvent is one of MouseMove, MouseWheel or MouseClick.
type MouseEvent interface {
	isMouseEvent()
}

// MouseMove moves the pointer.
type MouseMove struct {
	Position Position
}

// MouseWheel scrolls by Delta at the last known pointer position.
type MouseWheel struct {
	Delta Position
}

// MouseClick presses or releases Button. A nil Position keeps the last
// known pointer position.
type MouseClick struct {
	Button   MouseButton
	Pressed  bool
	Position *Position
}

func (MouseMove) isMouseEvent()  {}
func (MouseWheel) isMouseEvent() {}
func (MouseClick) isMouseEvent() {}

// KeyboardModifiers is a set of held modifier keys.
type KeyboardModifiers uint8

const (
	ModWin KeyboardModifiers = 1 << iota
	ModShift
	ModCtrl
	ModAlt
	ModCommand
	ModCapsLock

	ModNone KeyboardModifiers = 0
)

func (m KeyboardModifiers) flags() uint32 {
	flags := native.EventFlagNone
	if m&(ModWin|ModCommand) != 0 {
		flags |= native.EventFlagCommandDown
	}
	if m&ModShift != 0 {
		flags |= native.EventFlagShiftDown
	}
	if m&ModCtrl != 0 {
		flags |= native.EventFlagControlDown
	}
	if m&ModAlt != 0 {
		flags |= native.EventFlagAltDown
	}
	if m&ModCapsLock != 0 {
		flags |= native.EventFlagCapsLockOn
	}
	return flags
}

// KeyboardEventType is the kind of key event.
type KeyboardEventType int

const (
	KeyDown KeyboardEventType = iota
	KeyUp
	Char
	RawKeyDown
)

func (t KeyboardEventType) native() native.KeyEventType {
	switch t {
	case KeyUp:
		return native.KeyEventKeyUp
	case Char:
		return native.KeyEventChar
	case RawKeyDown:
		return native.KeyEventRawKeyDown
	default:
		return native.KeyEventKeyDown
	}
}

// KeyboardEvent is a key event for a windowless webview.
type KeyboardEvent struct {
	Type                 KeyboardEventType
	Modifiers            KeyboardModifiers
	WindowsKeyCode       uint32
	NativeKeyCode        uint32
	IsSystemKey          bool
	Character            uint16
	UnmodifiedCharacter  uint16
	FocusOnEditableField bool
}

func boolInt(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

func (e KeyboardEvent) native() native.KeyEvent {
	return native.KeyEvent{
		Type:                 e.Type.native(),
		Modifiers:            e.Modifiers.flags(),
		WindowsKeyCode:       int32(e.WindowsKeyCode),
		NativeKeyCode:        int32(e.NativeKeyCode),
		IsSystemKey:          boolInt(e.IsSystemKey),
		Character:            e.Character,
		UnmodifiedCharacter:  e.UnmodifiedCharacter,
		FocusOnEditableField: boolInt(e.FocusOnEditableField),
	}
}

// IMEAction is IMEComposition or IMEPreedit.
type IMEAction interface {
	isIMEAction()
}

// IMEComposition commits Text.
type IMEComposition struct {
	Text string
}

// IMEPreedit updates the pending composition with the caret at X, Y.
type IMEPreedit struct {
	Text string
	X    int32
	Y    int32
}

func (IMEComposition) isIMEAction() {}
func (IMEPreedit) isIMEAction()     {}

// TouchEventType is the phase of a touch point.
type TouchEventType int

const (
	TouchReleased TouchEventType = iota
	TouchPressed
	TouchMoved
	TouchCancelled
)

// PointerType is the device behind a touch point.
type PointerType int

const (
	PointerTouch PointerType = iota
	PointerMouse
	PointerPen
	PointerEraser
	PointerUnknown
)

// TouchEvent is one touch point update.
type TouchEvent struct {
	ID            int32
	X             float32
	Y             float32
	RadiusX       float32
	RadiusY       float32
	RotationAngle float32
	Pressure      float32
	Type          TouchEventType
	Modifiers     KeyboardModifiers
	PointerType   PointerType
}

func (e TouchEvent) native() native.TouchEvent {
	return native.TouchEvent{
		ID:            e.ID,
		X:             e.X,
		Y:             e.Y,
		RadiusX:       e.RadiusX,
		RadiusY:       e.RadiusY,
		RotationAngle: e.RotationAngle,
		Pressure:      e.Pressure,
		Type:          native.TouchEventType(e.Type),
		Modifiers:     e.Modifiers.flags(),
		PointerType:   native.PointerType(e.PointerType),
	}
}
