// Package postgres persists analysis runs and their per-taxon results.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/microbialman/igaseq/domain/compare"
	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/run"
	"github.com/microbialman/igaseq/domain/tables"
	"github.com/microbialman/igaseq/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id              TEXT PRIMARY KEY,
	created_at      TIMESTAMPTZ NOT NULL,
	method          TEXT NOT NULL,
	strategy        TEXT NOT NULL,
	alpha           DOUBLE PRECISION NOT NULL,
	threshold       DOUBLE PRECISION NOT NULL,
	min_prevalence  INTEGER NOT NULL,
	taxa_in         INTEGER NOT NULL,
	taxa_tested     INTEGER NOT NULL,
	num_subjects    INTEGER NOT NULL,
	elapsed_ms      BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS taxon_results (
	run_id        TEXT NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
	taxon         TEXT NOT NULL,
	strategy      TEXT NOT NULL,
	testable      BOOLEAN NOT NULL,
	reason        TEXT NOT NULL,
	p_value       DOUBLE PRECISION,
	p_adjusted    DOUBLE PRECISION,
	p_condition   DOUBLE PRECISION,
	p_interaction DOUBLE PRECISION,
	effects       JSONB NOT NULL,
	significant   BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, taxon)
);
`

// ResultRepositoryImpl implements ports.ResultRepository for PostgreSQL.
// NA p-values are stored as SQL NULL and read back as NA.
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository.
func NewResultRepository(db *sqlx.DB) *ResultRepositoryImpl {
	return &ResultRepositoryImpl{db: db}
}

var _ ports.ResultRepository = (*ResultRepositoryImpl)(nil)

// EnsureSchema creates the result tables when absent.
func (r *ResultRepositoryImpl) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

type effectRecord struct {
	Stratum string   `json:"stratum"`
	SSMD    *float64 `json:"ssmd"`
}

// SaveRun stores the run manifest and all per-taxon rows in one transaction.
func (r *ResultRepositoryImpl) SaveRun(ctx context.Context, rn *run.Run, results []compare.Result) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			id, created_at, method, strategy, alpha, threshold,
			min_prevalence, taxa_in, taxa_tested, num_subjects, elapsed_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rn.ID.String(), rn.CreatedAt.Time(), rn.Method, string(rn.Strategy), rn.Alpha,
		rn.Threshold, rn.MinPrevalence, rn.TaxaIn, rn.TaxaTested, rn.NumSubjects,
		rn.Elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", rn.ID, err)
	}

	for _, res := range results {
		effects := make([]effectRecord, 0, len(res.Effects))
		for _, e := range res.Effects {
			effects = append(effects, effectRecord{Stratum: e.Stratum, SSMD: toNullable(e.SSMD)})
		}
		effectsJSON, err := json.Marshal(effects)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO taxon_results (
				run_id, taxon, strategy, testable, reason,
				p_value, p_adjusted, p_condition, p_interaction,
				effects, significant
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			rn.ID.String(), res.Taxon.String(), string(res.Strategy), res.Testable, string(res.Reason),
			nullFloat(res.PValue), nullFloat(res.PAdjusted), nullFloat(res.PCondition), nullFloat(res.PInteraction),
			effectsJSON, res.Significant)
		if err != nil {
			return fmt.Errorf("inserting result for taxon %s: %w", res.Taxon, err)
		}
	}
	return tx.Commit()
}

// GetRun loads one run manifest.
func (r *ResultRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT id, created_at, method, strategy, alpha, threshold,
		       min_prevalence, taxa_in, taxa_tested, num_subjects, elapsed_ms
		FROM analysis_runs WHERE id = $1`, id.String())

	var (
		rn        run.Run
		idStr     string
		strategy  string
		createdAt time.Time
		elapsedMS int64
	)
	err := row.Scan(&idStr, &createdAt, &rn.Method, &strategy, &rn.Alpha, &rn.Threshold,
		&rn.MinPrevalence, &rn.TaxaIn, &rn.TaxaTested, &rn.NumSubjects, &elapsedMS)
	if err != nil {
		return nil, err
	}
	rn.ID = core.RunID(idStr)
	rn.CreatedAt = core.NewTimestamp(createdAt)
	rn.Strategy = compare.Strategy(strategy)
	rn.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return &rn, nil
}

// GetResults loads the per-taxon rows of a run, ordered by taxon.
func (r *ResultRepositoryImpl) GetResults(ctx context.Context, id core.RunID) ([]compare.Result, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT taxon, strategy, testable, reason,
		       p_value, p_adjusted, p_condition, p_interaction,
		       effects, significant
		FROM taxon_results WHERE run_id = $1 ORDER BY taxon`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []compare.Result
	for rows.Next() {
		var (
			res         compare.Result
			taxon       string
			strategy    string
			reason      string
			pValue      sql.NullFloat64
			pAdjusted   sql.NullFloat64
			pCondition  sql.NullFloat64
			pInteract   sql.NullFloat64
			effectsJSON []byte
		)
		err := rows.Scan(&taxon, &strategy, &res.Testable, &reason,
			&pValue, &pAdjusted, &pCondition, &pInteract, &effectsJSON, &res.Significant)
		if err != nil {
			return nil, err
		}
		res.Taxon = core.Taxon(taxon)
		res.Strategy = compare.Strategy(strategy)
		res.Reason = compare.UntestableReason(reason)
		res.PValue = fromNullable(pValue)
		res.PAdjusted = fromNullable(pAdjusted)
		res.PCondition = fromNullable(pCondition)
		res.PInteraction = fromNullable(pInteract)

		var effects []effectRecord
		if err := json.Unmarshal(effectsJSON, &effects); err != nil {
			return nil, err
		}
		for _, e := range effects {
			ssmd := tables.NA()
			if e.SSMD != nil {
				ssmd = *e.SSMD
			}
			res.Effects = append(res.Effects, compare.StratumEffect{Stratum: e.Stratum, SSMD: ssmd})
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListRuns returns up to limit run manifests, newest first.
func (r *ResultRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*run.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id FROM analysis_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []core.RunID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, core.RunID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*run.Run, 0, len(ids))
	for _, id := range ids {
		rn, err := r.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rn)
	}
	return out, nil
}

func nullFloat(v float64) sql.NullFloat64 {
	if tables.IsNA(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return tables.NA()
	}
	return v.Float64
}

func toNullable(v float64) *float64 {
	if tables.IsNA(v) {
		return nil
	}
	return &v
}
