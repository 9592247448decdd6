package feed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

// FileFormat selects the DuckDB table function used to read a quote file.
type FileFormat string

const (
	FormatParquet FileFormat = "parquet"
	FormatCSV     FileFormat = "csv"
)

// DuckDBQuery narrows the rows read from a quote file.
type DuckDBQuery struct {
	Symbols []string
	Start   optional.Option[time.Time]
	End     optional.Option[time.Time]
}

// DuckDB reads quote rows with the columns timestamp, symbol, bid, ask and
// last from a parquet or CSV file through an in-memory DuckDB view.
type DuckDB struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// OpenDuckDB creates an in-memory database with a quotes view over path.
func OpenDuckDB(path string, format FileFormat, log *logger.Logger) (*DuckDB, error) {
	var reader string

	switch format {
	case FormatParquet:
		reader = "read_parquet"
	case FormatCSV:
		reader = "read_csv_auto"
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported feed format %q", format)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	// CREATE VIEW cannot be built with squirrel and table functions take no
	// bind parameters, so the path is quoted by hand.
	query := fmt.Sprintf(`CREATE VIEW quotes AS SELECT * FROM %s('%s');`, reader, strings.ReplaceAll(path, "'", "''"))
	if _, err := db.Exec(query); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read %s", path)
	}

	log.Debug("Opened quote file", zap.String("path", path), zap.String("format", string(format)))

	return &DuckDB{
		db:     db,
		logger: log,
		sq:     newStatementBuilder(),
	}, nil
}

func newStatementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Close releases the database.
func (d *DuckDB) Close() error {
	return d.db.Close()
}

func (d *DuckDB) buildQuery(q DuckDBQuery) (string, []any, error) {
	builder := d.sq.
		Select(
			"timestamp",
			"symbol",
			"CAST(bid AS VARCHAR)",
			"CAST(ask AS VARCHAR)",
			"CAST(last AS VARCHAR)",
		).
		From("quotes")

	if len(q.Symbols) > 0 {
		builder = builder.Where(squirrel.Eq{"symbol": q.Symbols})
	}

	if q.Start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"timestamp": q.Start.Unwrap()})
	}

	if q.End.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"timestamp": q.End.Unwrap()})
	}

	return builder.OrderBy("timestamp ASC", "symbol ASC").ToSql()
}

// Feed streams the selected rows in timestamp order.
func (d *DuckDB) Feed(ctx context.Context, q DuckDBQuery) Feed {
	return func(yield func(Update, error) bool) {
		query, args, err := d.buildQuery(q)
		if err != nil {
			yield(Update{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build quote query", err))

			return
		}

		rows, err := d.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(Update{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query quotes", err))

			return
		}
		defer rows.Close()

		count := 0

		for rows.Next() {
			var (
				timestamp      time.Time
				symbol         string
				bid, ask, last sql.NullString
			)

			if err := rows.Scan(&timestamp, &symbol, &bid, &ask, &last); err != nil {
				yield(Update{}, errors.Wrap(errors.ErrCodeFeedParse, "failed to scan quote row", err))

				return
			}

			update, err := quoteUpdate(timestamp.UTC(), symbol, bid.String, ask.String, last.String)
			if err != nil {
				yield(Update{}, err)

				return
			}

			count++

			if !yield(update, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(Update{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate quotes", err))

			return
		}

		d.logger.Debug("Finished reading quotes", zap.Int("rows", count))
	}
}
