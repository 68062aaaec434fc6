package repository

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ModelHandlers tells the generic repository how to build and identify records
type ModelHandlers[T any] struct {
	NewRecord func() T
	GetID     func(T) int64
	SetID     func(T, int64)
	// UpdatedAtColumn is appended to partial updates so the timestamp
	// set by the model hook is persisted.
	UpdatedAtColumn string
}

// SelectCriteria customizes select queries
type SelectCriteria func(*bun.SelectQuery) *bun.SelectQuery

// ListOptions paginates List calls
type ListOptions struct {
	Limit  int
	Offset int
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Normalize clamps limit and offset to sane values
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Repository is the generic storage contract shared by every model.
// Records are soft deleted, lookups skip soft deleted rows.
type Repository[T any] interface {
	Create(ctx context.Context, record T) (T, error)
	CreateTx(ctx context.Context, tx bun.IDB, record T) (T, error)
	GetByID(ctx context.Context, id int64, criteria ...SelectCriteria) (T, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id int64, criteria ...SelectCriteria) (T, error)
	GetByField(ctx context.Context, column string, value any) (T, error)
	GetByFieldTx(ctx context.Context, tx bun.IDB, column string, value any) (T, error)
	ExistsByFieldTx(ctx context.Context, tx bun.IDB, column string, value any) (bool, error)
	Update(ctx context.Context, record T, columns ...string) (T, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record T, columns ...string) (T, error)
	SoftDelete(ctx context.Context, id int64) error
	SoftDeleteTx(ctx context.Context, tx bun.IDB, id int64) error
	List(ctx context.Context, opts ListOptions, criteria ...SelectCriteria) ([]T, int, error)
}

type repo[T any] struct {
	db       *bun.DB
	handlers ModelHandlers[T]
}

var _ Repository[any] = (*repo[any])(nil)

// NewRepository returns a bun backed Repository for T
func NewRepository[T any](db *bun.DB, handlers ModelHandlers[T]) Repository[T] {
	if handlers.NewRecord == nil || handlers.GetID == nil || handlers.SetID == nil {
		panic("repository: NewRecord, GetID and SetID handlers are required")
	}
	return &repo[T]{db: db, handlers: handlers}
}

func (r *repo[T]) Create(ctx context.Context, record T) (T, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *repo[T]) CreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		var zero T
		if column, ok := UniqueViolationColumn(err); ok {
			return zero, NewDuplicateRecord(err, column)
		}
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert record")
	}
	return record, nil
}

func (r *repo[T]) GetByID(ctx context.Context, id int64, criteria ...SelectCriteria) (T, error) {
	return r.GetByIDTx(ctx, r.db, id, criteria...)
}

func (r *repo[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id int64, criteria ...SelectCriteria) (T, error) {
	record := r.handlers.NewRecord()
	q := tx.NewSelect().Model(record).Where("?TableAlias.id = ?", id)
	for _, c := range criteria {
		q = q.Apply(c)
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		var zero T
		return zero, r.selectError(err, map[string]any{"id": id})
	}
	return record, nil
}

func (r *repo[T]) GetByField(ctx context.Context, column string, value any) (T, error) {
	return r.GetByFieldTx(ctx, r.db, column, value)
}

func (r *repo[T]) GetByFieldTx(ctx context.Context, tx bun.IDB, column string, value any) (T, error) {
	record := r.handlers.NewRecord()
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		var zero T
		return zero, r.selectError(err, map[string]any{column: value})
	}
	return record, nil
}

// ExistsByFieldTx also counts soft deleted rows, unique constraints still
// apply to them.
func (r *repo[T]) ExistsByFieldTx(ctx context.Context, tx bun.IDB, column string, value any) (bool, error) {
	exists, err := tx.NewSelect().
		Model(r.handlers.NewRecord()).
		WhereAllWithDeleted().
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check record existence")
	}
	return exists, nil
}

func (r *repo[T]) Update(ctx context.Context, record T, columns ...string) (T, error) {
	return r.UpdateTx(ctx, r.db, record, columns...)
}

// UpdateTx writes the given columns, or every column except the immutable
// ones when none are given, and returns the stored record.
func (r *repo[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, columns ...string) (T, error) {
	var zero T
	id := r.handlers.GetID(record)

	q := tx.NewUpdate().Model(record).WherePK()
	if len(columns) > 0 {
		if r.handlers.UpdatedAtColumn != "" {
			columns = append(columns, r.handlers.UpdatedAtColumn)
		}
		q = q.Column(columns...)
	} else {
		q = q.ExcludeColumn("id", "created_at", "deleted_at")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		if column, ok := UniqueViolationColumn(err); ok {
			return zero, NewDuplicateRecord(err, column)
		}
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update record")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return zero, NewRecordNotFound().WithMetadata(map[string]any{"id": id})
	}

	return r.GetByIDTx(ctx, tx, id)
}

func (r *repo[T]) SoftDelete(ctx context.Context, id int64) error {
	return r.SoftDeleteTx(ctx, r.db, id)
}

func (r *repo[T]) SoftDeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	record := r.handlers.NewRecord()
	r.handlers.SetID(record, id)

	res, err := tx.NewDelete().Model(record).WherePK().Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete record")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NewRecordNotFound().WithMetadata(map[string]any{"id": id})
	}
	return nil
}

func (r *repo[T]) List(ctx context.Context, opts ListOptions, criteria ...SelectCriteria) ([]T, int, error) {
	opts = opts.Normalize()

	records := make([]T, 0)
	q := r.db.NewSelect().Model(&records)
	for _, c := range criteria {
		q = q.Apply(c)
	}

	total, err := q.
		Order("id ASC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		ScanAndCount(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list records")
	}

	return records, total, nil
}

func (r *repo[T]) selectError(err error, metadata map[string]any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NewRecordNotFound().WithMetadata(metadata)
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve record")
}
