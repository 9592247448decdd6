package feed

import (
	"iter"

	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

type source struct {
	next func() (Update, error, bool)
	stop func()
	head Update
	last Update
	seen bool
}

// Merge interleaves several feeds by timestamp. Each input must be ordered on
// its own; an input that goes backwards ends the merged feed with
// FeedOutOfOrder. Ties keep the order of the inputs.
func Merge(feeds ...Feed) Feed {
	return func(yield func(Update, error) bool) {
		sources := make([]*source, 0, len(feeds))

		defer func() {
			for _, s := range sources {
				s.stop()
			}
		}()

		advance := func(s *source) (bool, error) {
			u, err, ok := s.next()
			if !ok {
				return false, nil
			}

			if err != nil {
				return false, err
			}

			if s.seen && u.Timestamp.Before(s.last.Timestamp) {
				return false, errors.Newf(errors.ErrCodeFeedOutOfOrder,
					"update for %s at %s is older than %s", u.Symbol, u.Timestamp, s.last.Timestamp)
			}

			s.head, s.last, s.seen = u, u, true

			return true, nil
		}

		for _, f := range feeds {
			next, stop := iter.Pull2(f)
			s := &source{next: next, stop: stop}

			ok, err := advance(s)
			if err != nil {
				stop()
				yield(Update{}, err)

				return
			}

			if ok {
				sources = append(sources, s)
			} else {
				stop()
			}
		}

		for len(sources) > 0 {
			earliest := 0
			for i := 1; i < len(sources); i++ {
				if sources[i].head.Timestamp.Before(sources[earliest].head.Timestamp) {
					earliest = i
				}
			}

			s := sources[earliest]
			if !yield(s.head, nil) {
				return
			}

			ok, err := advance(s)
			if err != nil {
				yield(Update{}, err)

				return
			}

			if !ok {
				s.stop()
				sources = append(sources[:earliest], sources[earliest+1:]...)
			}
		}
	}
}
