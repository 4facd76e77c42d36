// Package wew binds the wew browser engine (libwew, a Chromium Embedded
// Framework distribution with a flat C surface).
//
// A process hosts at most one Runtime, created on the main thread through a
// RuntimeAttributesBuilder obtained from one of the three message loops:
//
//	loop := wew.MainThreadMessageLoop{}
//	attrs := loop.NewRuntimeAttributesBuilder(wew.NativeWindow).
//		WithCachePath("/tmp/cache").
//		Build()
//	rt, err := attrs.CreateRuntime(handler)
//	...
//	loop.Run()
//
// WebViews are created once the runtime reports that its context is
// initialized. Engine callbacks arrive on engine threads and are forwarded
// to the handler interfaces in this package; a panic inside a handler
// terminates the process.
//
// Helper processes re-execute the host binary, so main must hand them over
// before doing anything else:
//
//	if wew.IsSubprocess() {
//		wew.ExecuteSubprocess()
//		return
//	}
package wew
