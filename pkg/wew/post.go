package wew

import "github.com/bnema/wew/internal/handle"

type mainTask struct {
	fn func()
}

// PostMain queues fn on the engine's main thread. It reports false when the
// engine refused the task, in which case fn never runs.
func PostMain(fn func()) bool {
	e, err := currentEngine()
	if err != nil {
		return false
	}
	key := contexts.Box(&mainTask{fn: fn})
	if !e.PostTask(onMainTask, key) {
		contexts.Free(key)
		return false
	}
	return true
}

func onMainTask(ctx uintptr) {
	t, ok := handle.LoadAs[*mainTask](contexts, ctx)
	if !ok || !contexts.Free(ctx) {
		return
	}
	guard("main task", t.fn)
}
