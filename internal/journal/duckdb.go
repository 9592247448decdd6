package journal

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBWriter buffers fills in an in-memory DuckDB table and exports the
// table to parquet on Finalize. Decimal columns are stored as text so no
// precision is lost.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	logger     *logger.Logger
}

// NewDuckDBWriter creates a writer exporting to outputPath.
func NewDuckDBWriter(outputPath string, log *logger.Logger) *DuckDBWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
		logger:     log.Named("journal"),
	}
}

var _ FillWriter = (*DuckDBWriter)(nil)

// Initialize opens the database, creates the fills table, begins a
// transaction and prepares the insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			trade_id TEXT,
			client_order_id TEXT,
			timestamp TIMESTAMP,
			symbol TEXT,
			side TEXT,
			price TEXT,
			quantity TEXT,
			fee TEXT,
			fee_asset TEXT,
			liquidity TEXT
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create fills table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO fills (trade_id, client_order_id, timestamp, symbol, side, price, quantity, fee, fee_asset, liquidity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write inserts one fill within the open transaction.
func (w *DuckDBWriter) Write(fill types.Fill) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "writer not initialized")
	}

	_, err := w.stmt.Exec(
		fill.TradeID,
		fill.ClientOrderID,
		fill.Timestamp,
		fill.Symbol,
		string(fill.Side),
		fill.Price.String(),
		fill.Quantity.String(),
		fill.Fee.String(),
		fill.FeeAsset,
		string(fill.Liquidity),
	)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert fill %s", fill.TradeID)
	}

	return nil
}

// Finalize commits the transaction and exports the fills to parquet.
func (w *DuckDBWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeInvalidParameter, "writer not initialized")
	}

	if w.stmt != nil {
		_ = w.stmt.Close()
		w.stmt = nil
	}

	if err := w.tx.Commit(); err != nil {
		_ = w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit fills", err)
	}

	w.tx = nil

	path := strings.ReplaceAll(w.outputPath, "'", "''")
	if _, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM fills ORDER BY timestamp, trade_id) TO '%s' (FORMAT PARQUET)`, path)); err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to export fills to parquet", err)
	}

	w.logger.Info("Exported fills", zap.String("path", w.outputPath))

	return w.outputPath, nil
}

// Close releases the statement, rolls back an unfinished transaction and
// closes the database.
func (w *DuckDBWriter) Close() error {
	var errs []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close statement: %w", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.logger.Warn("Failed to roll back fills transaction", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close db connection: %w", err))
		}

		w.db = nil
	}

	return stderrors.Join(errs...)
}

// GetOutputPath returns the parquet file path.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}
