package feed

import (
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// Slice replays updates held in memory. The updates must already be sorted
// by timestamp; the first update older than its predecessor ends the feed
// with FeedOutOfOrder.
func Slice(updates []Update) Feed {
	return func(yield func(Update, error) bool) {
		for i, u := range updates {
			if i > 0 && u.Timestamp.Before(updates[i-1].Timestamp) {
				yield(Update{}, errors.Newf(errors.ErrCodeFeedOutOfOrder,
					"update %d for %s at %s is older than the previous update", i, u.Symbol, u.Timestamp))

				return
			}

			if !yield(u, nil) {
				return
			}
		}
	}
}

// Collect drains a feed into memory, stopping at the first error.
func Collect(f Feed) ([]Update, error) {
	var updates []Update

	for u, err := range f {
		if err != nil {
			return updates, err
		}

		updates = append(updates, u)
	}

	return updates, nil
}
