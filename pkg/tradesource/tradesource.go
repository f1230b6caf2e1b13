// Package tradesource loads closed-trade records from Parquet, CSV or JSON
// files through an in-memory DuckDB instance.
//
// Expected columns: transaction_type and realized_pnl are required;
// pattern_type, transaction_at and created_at are optional and read as NULL
// when absent.
package tradesource

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-pulse/internal/logger"
	"github.com/rxtech-lab/argo-pulse/internal/types"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"go.uber.org/zap"
)

var requiredColumns = []string{"transaction_type", "realized_pnl"}

var optionalColumns = []string{"pattern_type", "transaction_at", "created_at"}

// effectiveTimeExpr mirrors types.ClosedTrade.EffectiveTime.
const effectiveTimeExpr = "COALESCE(transaction_at, created_at)"

// LoadOptions restricts which records are returned. Bounds are inclusive and
// compare against the effective trade time.
type LoadOptions struct {
	Start optional.Option[time.Time]
	End   optional.Option[time.Time]
}

type Source struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// Open starts an in-memory DuckDB instance.
func Open(log *logger.Logger) (*Source, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open duckdb", err)
	}

	return &Source{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

// Load reads every record of the file at path. The file format is chosen by
// extension: .parquet, .csv, .json, .jsonl or .ndjson.
func (s *Source) Load(ctx context.Context, path string, opts LoadOptions) ([]types.ClosedTrade, error) {
	table, err := tableFunction(path)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Loading trades", zap.String("path", path), zap.String("reader", table))

	columns, err := s.columns(ctx, table)
	if err != nil {
		return nil, err
	}

	for _, column := range requiredColumns {
		if _, ok := columns[column]; !ok {
			return nil, errors.Newf(errors.ErrCodeMissingParameter, "%s: missing required column %q", path, column)
		}
	}

	query, args, err := s.buildQuery(table, columns, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build trade query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query trades from %s", path)
	}
	defer rows.Close()

	var trades []types.ClosedTrade

	for rows.Next() {
		var (
			transactionType sql.NullString
			realizedPnL     sql.NullFloat64
			patternType     sql.NullString
			transactionAt   sql.NullTime
			createdAt       sql.NullTime
		)

		if err := rows.Scan(&transactionType, &realizedPnL, &patternType, &transactionAt, &createdAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade row", err)
		}

		if !transactionType.Valid {
			s.logger.Warn("Skipping trade without transaction type", zap.String("path", path))

			continue
		}

		trade := types.ClosedTrade{
			TransactionType: types.TransactionType(strings.ToUpper(strings.TrimSpace(transactionType.String))),
			RealizedPnL:     realizedPnL.Float64,
			PatternType:     patternType.String,
			TransactionAt:   utcOrZero(transactionAt),
			CreatedAt:       utcOrZero(createdAt),
		}

		// A missing or unparsable PnL is not a break-even trade; NaN keeps it
		// out of every statistic.
		if !realizedPnL.Valid {
			trade.RealizedPnL = math.NaN()

			if trade.IsClosed() {
				s.logger.Warn("Trade has no usable realized PnL",
					zap.String("path", path),
					zap.Time("effective_time", trade.EffectiveTime()),
				)
			}
		}

		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate trade rows", err)
	}

	s.logger.Info("Loaded trades", zap.String("path", path), zap.Int("count", len(trades)))

	return trades, nil
}

// columns returns the lower-cased column names exposed by table.
func (s *Source) columns(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+table+" LIMIT 0")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read trade file", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read trade columns", err)
	}

	columns := make(map[string]struct{}, len(names))
	for _, name := range names {
		columns[strings.ToLower(name)] = struct{}{}
	}

	return columns, nil
}

func (s *Source) buildQuery(table string, columns map[string]struct{}, opts LoadOptions) (string, []interface{}, error) {
	inner := make([]string, 0, len(requiredColumns)+len(optionalColumns))
	inner = append(inner,
		"CAST(transaction_type AS VARCHAR) AS transaction_type",
		"TRY_CAST(realized_pnl AS DOUBLE) AS realized_pnl",
	)

	for _, column := range optionalColumns {
		cast := "VARCHAR"
		if column != "pattern_type" {
			cast = "TIMESTAMP"
		}

		if _, ok := columns[column]; ok {
			inner = append(inner, fmt.Sprintf("TRY_CAST(%s AS %s) AS %s", column, cast, column))
		} else {
			inner = append(inner, fmt.Sprintf("CAST(NULL AS %s) AS %s", cast, column))
		}
	}

	normalized, _, err := squirrel.Select(inner...).From(table).ToSql()
	if err != nil {
		return "", nil, err
	}

	// "??" keeps a literal question mark in the file path out of placeholder numbering
	normalized = strings.ReplaceAll(normalized, "?", "??")

	builder := s.sq.
		Select("transaction_type", "realized_pnl", "pattern_type", "transaction_at", "created_at").
		From("(" + normalized + ") AS t").
		OrderBy(effectiveTimeExpr + " ASC NULLS FIRST")

	conditions := squirrel.And{}

	if opts.Start.IsSome() {
		conditions = append(conditions, squirrel.Expr(effectiveTimeExpr+" >= ?", opts.Start.Unwrap().UTC()))
	}

	if opts.End.IsSome() {
		conditions = append(conditions, squirrel.Expr(effectiveTimeExpr+" <= ?", opts.End.Unwrap().UTC()))
	}

	if len(conditions) > 0 {
		builder = builder.Where(conditions)
	}

	return builder.ToSql()
}

// tableFunction returns the DuckDB table function reading path.
func tableFunction(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New(errors.ErrCodeMissingParameter, "trade file path is required")
	}

	escaped := strings.ReplaceAll(path, "'", "''")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return fmt.Sprintf("read_parquet('%s')", escaped), nil
	case ".csv":
		return fmt.Sprintf("read_csv_auto('%s')", escaped), nil
	case ".json", ".jsonl", ".ndjson":
		return fmt.Sprintf("read_json_auto('%s')", escaped), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported trade file %q: expected .parquet, .csv or .json", path)
	}
}

func utcOrZero(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}

	return t.Time.UTC()
}
