package payroll

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGuard_AcquireRelease(t *testing.T) {
	g := newRunGuard()
	key := keyFor("biz", biWeekly())

	release, ok := g.acquire(key)
	require.True(t, ok)

	_, ok = g.acquire(key)
	assert.False(t, ok)

	release()
	release() // second call is a no-op

	again, ok := g.acquire(key)
	require.True(t, ok)
	again()
}

func TestRunGuard_KeyIgnoresTimeOfDay(t *testing.T) {
	a := payroll.NewPeriod(time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC), time.Date(2024, 3, 14, 1, 0, 0, 0, time.UTC), payroll.PayScheduleBiWeekly)
	b := payroll.NewPeriod(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), payroll.PayScheduleWeekly)

	assert.Equal(t, keyFor("biz", a), keyFor("biz", b))
	assert.NotEqual(t, keyFor("biz", a), keyFor("other", a))
}

func TestRunGuard_ConcurrentAcquire(t *testing.T) {
	g := newRunGuard()
	key := keyFor("biz", biWeekly())

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := g.acquire(key); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins)
}
