package mainthread

import (
	"github.com/ebitengine/purego"
)

var pthreadMainNP func() int32

func recordMain() {
	lib, err := purego.Dlopen("/usr/lib/libSystem.B.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		panic("mainthread: " + err.Error())
	}
	purego.RegisterLibFunc(&pthreadMainNP, lib, "pthread_main_np")
}

func isMain() bool {
	return pthreadMainNP() != 0
}
