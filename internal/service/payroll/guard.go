package payroll

import (
	"sync"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
)

type runKey struct {
	businessID string
	start      string
	end        string
}

func keyFor(businessID string, period payroll.Period) runKey {
	return runKey{
		businessID: businessID,
		start:      period.Start.Format(dateLayout),
		end:        period.End.Format(dateLayout),
	}
}

// runGuard serializes runs per business and period inside one process.
// Across processes the partial unique index on payroll_runs does the same.
type runGuard struct {
	mu     sync.Mutex
	active map[runKey]struct{}
}

func newRunGuard() *runGuard {
	return &runGuard{active: make(map[runKey]struct{})}
}

// acquire returns a release func, or false when the key is already held.
func (g *runGuard) acquire(key runKey) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[key]; busy {
		return nil, false
	}
	g.active[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, key)
			g.mu.Unlock()
		})
	}, true
}
