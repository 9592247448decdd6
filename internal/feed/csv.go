package feed

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// CSV reads ticker rows from r. The first row is a header naming at least
// the columns timestamp, symbol, bid, ask and last in any order. Rows must be
// sorted by timestamp.
func CSV(r io.Reader) Feed {
	return func(yield func(Update, error) bool) {
		reader := csv.NewReader(r)
		reader.TrimLeadingSpace = true
		reader.ReuseRecord = true

		header, err := reader.Read()
		if err != nil {
			yield(Update{}, errors.Wrap(errors.ErrCodeFeedParse, "failed to read csv header", err))

			return
		}

		index, err := columnIndex(header)
		if err != nil {
			yield(Update{}, err)

			return
		}

		var previous Update

		for line := 2; ; line++ {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}

			if err != nil {
				yield(Update{}, errors.Wrapf(errors.ErrCodeFeedParse, err, "failed to read csv line %d", line))

				return
			}

			timestamp, err := parseTimestamp(record[index["timestamp"]])
			if err != nil {
				yield(Update{}, errors.Wrapf(errors.ErrCodeFeedParse, err, "csv line %d", line))

				return
			}

			update, err := quoteUpdate(timestamp, record[index["symbol"]], record[index["bid"]], record[index["ask"]], record[index["last"]])
			if err != nil {
				yield(Update{}, errors.Wrapf(errors.ErrCodeFeedParse, err, "csv line %d", line))

				return
			}

			if line > 2 && update.Timestamp.Before(previous.Timestamp) {
				yield(Update{}, errors.Newf(errors.ErrCodeFeedOutOfOrder,
					"csv line %d at %s is older than the previous row", line, update.Timestamp))

				return
			}

			previous = update

			if !yield(update, nil) {
				return
			}
		}
	}
}

// CSVFile opens path when the feed is iterated and reads it with CSV.
func CSVFile(path string) Feed {
	return func(yield func(Update, error) bool) {
		file, err := os.Open(path)
		if err != nil {
			yield(Update{}, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path))

			return
		}
		defer file.Close()

		for u, err := range CSV(file) {
			if !yield(u, err) || err != nil {
				return
			}
		}
	}
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, column := range quoteColumns {
		if _, ok := index[column]; !ok {
			return nil, errors.Newf(errors.ErrCodeFeedParse, "csv header is missing column %q", column)
		}
	}

	return index, nil
}
