package records

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/sealcheck/internal/workflow"
	"github.com/JaimeStill/sealcheck/pkg/database"
	"github.com/JaimeStill/sealcheck/pkg/pagination"
	"github.com/JaimeStill/sealcheck/pkg/repository"
)

type repo struct {
	db         database.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a verification history repository implementing System.
func New(db database.System, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "records"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) conn() (*sql.DB, error) {
	if !r.db.Ready() {
		return nil, database.ErrNotReady
	}
	return r.db.Connection(), nil
}

func (r *repo) Record(ctx context.Context, file workflow.FileRef, c workflow.Comparison) error {
	db, err := r.conn()
	if err != nil {
		return err
	}

	rec := FromComparison(file, c)

	q := `
		INSERT INTO verifications(id, filename, server_path, page_count, seal_id, diameter, seal_page, template, report, compared_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + columns

	args := []any{
		uuid.New(),
		rec.Filename,
		rec.ServerPath,
		rec.PageCount,
		rec.SealID,
		rec.Diameter,
		rec.SealPage,
		rec.Template,
		rec.Report,
		rec.ComparedAt,
	}

	saved, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (Record, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRecord)
	})
	if err != nil {
		return dbErrors.Map(err)
	}

	r.logger.Info("verification recorded", "id", saved.ID, "filename", saved.Filename, "template", saved.Template)
	return nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}

	page.Normalize(r.pagination)
	w := buildWhere(page.Search, filters)

	countSQL, countArgs := countQuery(w)
	total, err := repository.QueryScalar[int](ctx, db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	pageSQL, pageArgs := pageQuery(w, page.PageSize, page.Offset())
	recs, err := repository.QueryMany(ctx, db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	result := pagination.NewPageResult(recs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", columns, table)

	rec, err := repository.QueryOne(ctx, db, q, []any{id}, scanRecord)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &rec, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := r.conn()
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(ctx, db, "DELETE FROM verifications WHERE id = $1", id); err != nil {
		return dbErrors.Map(err)
	}

	r.logger.Info("verification deleted", "id", id)
	return nil
}

func (r *repo) Export(ctx context.Context, format Format, filters Filters, w io.Writer) (int, error) {
	if !format.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}

	db, err := r.conn()
	if err != nil {
		return 0, err
	}

	limit := r.pagination.MaxExport
	q, args := pageQuery(buildWhere(nil, filters), limit, 0)
	recs, err := repository.QueryMany(ctx, db, q, args, scanRecord)
	if err != nil {
		return 0, fmt.Errorf("query records: %w", err)
	}
	if limit > 0 && len(recs) == limit {
		r.logger.Warn("history export truncated", "limit", limit)
	}

	if err := Encode(w, format, recs); err != nil {
		return 0, err
	}

	r.logger.Info("history exported", "format", format, "count", len(recs))
	return len(recs), nil
}
