package governor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

type LimiterTestSuite struct {
	suite.Suite
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterTestSuite))
}

func (suite *LimiterTestSuite) TestRollingWindow() {
	clock := time.Unix(1000, 0)
	l := NewLimiter(3, time.Second)
	l.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		ok, _ := l.TryAcquire()
		suite.True(ok)
		clock = clock.Add(100 * time.Millisecond)
	}

	suite.Equal(0, l.Remaining())

	ok, wait := l.TryAcquire()
	suite.False(ok)
	suite.Equal(700*time.Millisecond, wait)

	// the first call leaves the window, one slot frees up
	clock = time.Unix(1001, 0).Add(time.Millisecond)
	suite.Equal(1, l.Remaining())
	ok, _ = l.TryAcquire()
	suite.True(ok)
}

func (suite *LimiterTestSuite) TestUnlimited() {
	l := NewLimiter(0, time.Second)
	for i := 0; i < 100; i++ {
		ok, _ := l.TryAcquire()
		suite.True(ok)
	}

	suite.Equal(-1, l.Remaining())
}

func (suite *LimiterTestSuite) TestWaitBlocksUntilBudget() {
	l := NewLimiter(1, 50*time.Millisecond)
	suite.NoError(l.Wait(context.Background()))

	start := time.Now()
	suite.NoError(l.Wait(context.Background()))
	suite.GreaterOrEqual(time.Since(start), 40*time.Millisecond)
}

func (suite *LimiterTestSuite) TestWaitHonoursContext() {
	l := NewLimiter(1, time.Hour)
	suite.NoError(l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeRateLimited))
}

func (suite *LimiterTestSuite) TestConcurrentAcquireNeverExceedsLimit() {
	l := NewLimiter(10, time.Hour)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if ok, _ := l.TryAcquire(); ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	suite.Equal(10, granted)
}
