//go:build !linux && !darwin && !windows

package mainthread

// TODO: use pthread_main_np on the BSDs once the engine ships there.
// Until then every caller is treated as the main thread.
func recordMain() {}

func isMain() bool {
	return true
}
