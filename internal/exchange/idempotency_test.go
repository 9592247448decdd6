package exchange

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

type PlacerTestSuite struct {
	suite.Suite
}

func TestPlacerSuite(t *testing.T) {
	suite.Run(t, new(PlacerTestSuite))
}

func notFound(context.Context) (types.OrderAck, bool, error) {
	return types.OrderAck{}, false, nil
}

func (suite *PlacerTestSuite) TestRepeatedPlacementReturnsOriginalAck() {
	p := NewPlacer()

	var placed int32
	place := func(context.Context) (types.OrderAck, error) {
		n := atomic.AddInt32(&placed, 1)

		return types.OrderAck{ClientOrderID: "c1", VenueOrderID: "v" + string(rune('0'+n))}, nil
	}

	first, err := p.Place(context.Background(), "c1", notFound, place)
	suite.NoError(err)

	second, err := p.Place(context.Background(), "c1", notFound, place)
	suite.NoError(err)

	suite.Equal(first, second)
	suite.Equal(int32(1), placed)
}

func (suite *PlacerTestSuite) TestAmbiguousFailureLooksUpBeforeReplacing() {
	p := NewPlacer()

	placed := 0
	place := func(context.Context) (types.OrderAck, error) {
		placed++

		return types.OrderAck{}, errors.New(errors.ErrCodeTimeout, "no response")
	}

	_, err := p.Place(context.Background(), "c1", notFound, place)
	suite.True(errors.IsTransient(err))

	lookups := 0
	lookup := func(context.Context) (types.OrderAck, bool, error) {
		lookups++

		return types.OrderAck{ClientOrderID: "c1", VenueOrderID: "v1", Status: types.OrderStatusOpen}, true, nil
	}

	ack, err := p.Place(context.Background(), "c1", lookup, place)
	suite.NoError(err)
	suite.Equal("v1", ack.VenueOrderID)
	suite.Equal(1, placed, "the order created by the timed out request is adopted")
	suite.Equal(1, lookups)
}

func (suite *PlacerTestSuite) TestNonTransientFailureDoesNotLookup() {
	p := NewPlacer()
	rejected := func(context.Context) (types.OrderAck, error) {
		return types.OrderAck{}, errors.New(errors.ErrCodeVenueRejected, "bad price")
	}

	_, err := p.Place(context.Background(), "c1", notFound, rejected)
	suite.True(errors.HasCode(err, errors.ErrCodeVenueRejected))

	lookupCalled := false
	lookup := func(context.Context) (types.OrderAck, bool, error) {
		lookupCalled = true

		return types.OrderAck{}, false, nil
	}
	ok := func(context.Context) (types.OrderAck, error) { return types.OrderAck{VenueOrderID: "v2"}, nil }

	ack, err := p.Place(context.Background(), "c1", lookup, ok)
	suite.NoError(err)
	suite.Equal("v2", ack.VenueOrderID)
	suite.False(lookupCalled)
}

func (suite *PlacerTestSuite) TestConcurrentPlacementsCreateOneOrder() {
	p := NewPlacer()

	var placed int32
	place := func(context.Context) (types.OrderAck, error) {
		atomic.AddInt32(&placed, 1)

		return types.OrderAck{ClientOrderID: "c1", VenueOrderID: "v1"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			ack, err := p.Place(context.Background(), "c1", notFound, place)
			suite.NoError(err)
			suite.Equal("v1", ack.VenueOrderID)
		}()
	}

	wg.Wait()
	suite.Equal(int32(1), placed)
}

func (suite *PlacerTestSuite) TestMissingClientID() {
	_, err := NewPlacer().Place(context.Background(), "", notFound, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}
