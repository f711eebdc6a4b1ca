package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerManager_ProcessesJobs(t *testing.T) {
	wm := NewWorkerManager(10, 3, nil)

	var processed int64
	var wg sync.WaitGroup
	wg.Add(5)
	wm.SetWorker(func(_ int, job interface{}) {
		atomic.AddInt64(&processed, int64(job.(int)))
		wg.Done()
	})

	done := make(chan struct{})
	go func() {
		wm.Start()
		close(done)
	}()

	for i := 1; i <= 5; i++ {
		assert.True(t, wm.Enqueue(i))
	}
	wg.Wait()
	assert.Equal(t, int64(15), atomic.LoadInt64(&processed))

	wm.Exit()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Exit")
	}
}

func TestWorkerManager_EnqueueAfterExit(t *testing.T) {
	wm := NewWorkerManager(0, 1, nil)
	wm.SetWorker(func(int, interface{}) {})
	wm.Exit()
	wm.Exit()

	assert.False(t, wm.Enqueue("late"))
}
