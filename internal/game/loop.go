package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// TickLoop advances every session of a manager on a fixed cadence and
// flushes snapshots on a slower one
type TickLoop struct {
	gameManager *GameManager
	interval    time.Duration
	saveEvery   time.Duration
	stopChan    chan struct{}
	done        chan struct{}
	started     atomic.Bool
	once        sync.Once
}

// NewTickLoop creates a tick loop. A zero saveEvery disables periodic flushes.
func NewTickLoop(gameManager *GameManager, interval, saveEvery time.Duration) *TickLoop {
	return &TickLoop{
		gameManager: gameManager,
		interval:    interval,
		saveEvery:   saveEvery,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start begins ticking in a goroutine
func (tl *TickLoop) Start() {
	if !tl.started.CompareAndSwap(false, true) {
		return
	}
	ticker := time.NewTicker(tl.interval)
	lastSave := time.Now()

	go func() {
		defer close(tl.done)
		for {
			select {
			case t := <-ticker.C:
				tl.gameManager.AdvanceAll(t.UnixMilli())
				if tl.saveEvery > 0 && time.Since(lastSave) >= tl.saveEvery {
					tl.flush()
					lastSave = time.Now()
				}
			case <-tl.stopChan:
				ticker.Stop()
				tl.flush()
				return
			}
		}
	}()
}

// Stop halts the loop and waits for the final flush
func (tl *TickLoop) Stop() {
	if !tl.started.Load() {
		return
	}
	tl.once.Do(func() {
		close(tl.stopChan)
		<-tl.done
	})
}

func (tl *TickLoop) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	if err := tl.gameManager.SaveAll(ctx); err != nil {
		tl.gameManager.Logger.Error("Failed to flush session snapshots", zap.Error(err))
	}
}
