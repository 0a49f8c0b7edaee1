package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Schema describes one parent/child resource pair to the engine: the columns
// that tie the tables together and accessors over the bun models. P is the
// parent row type, C the child row type.
type Schema[P, C any] struct {
	// OwnerColumn is the parent column holding the owning user id.
	OwnerColumn string
	// ParentColumn is the child column referencing the parent id.
	ParentColumn string
	// TouchColumn, when set, is bumped to the current time on every update,
	// whether the mutation touched parent fields, children, or both.
	TouchColumn string
	// SortExprs orders List results; include a unique column last so paging
	// is stable.
	SortExprs []string

	ParentID      func(*P) uuid.UUID
	OwnerID       func(*P) uuid.UUID
	BindOwner     func(*P, uuid.UUID)
	ChildParentID func(*C) uuid.UUID
	BindParent    func(*C, uuid.UUID)
}

// Aggregate is a parent row together with its child rows.
type Aggregate[P, C any] struct {
	Parent   *P
	Children []*C
}

// Page is one page of aggregates plus pagination metadata.
type Page[P, C any] struct {
	Items []*Aggregate[P, C]
	Meta  PageMeta
}

// Engine implements ownership-guarded, transactional CRUD over one
// parent/child resource pair. Every mutating operation checks ownership
// first and runs all of its statements in a single transaction; any failure
// rolls the whole operation back.
type Engine[P, C any] struct {
	db     *bun.DB
	schema Schema[P, C]
}

func NewEngine[P, C any](db *bun.DB, schema Schema[P, C]) *Engine[P, C] {
	return &Engine[P, C]{db: db, schema: schema}
}

// CheckOwnership loads the owner of a resource and compares it to the actor.
// One read, never cached: ownership can change between requests.
func (e *Engine[P, C]) CheckOwnership(ctx context.Context, idb bun.IDB, resourceID, actorID uuid.UUID) (Verdict, error) {
	parent := new(P)
	err := idb.NewSelect().
		Model(parent).
		Column(e.schema.OwnerColumn).
		Where("id = ?", resourceID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFound, nil
		}
		return NotFound, fmt.Errorf("failed to load resource owner: %w", err)
	}
	if e.schema.OwnerID(parent) != actorID {
		return Forbidden, nil
	}
	return Authorized, nil
}

// Create inserts the parent owned by actorID and, when children are given,
// its children, in one transaction. A failed child insert leaves no parent
// row behind.
func (e *Engine[P, C]) Create(ctx context.Context, actorID uuid.UUID, parent *P, children []*C) (*Aggregate[P, C], error) {
	e.schema.BindOwner(parent, actorID)
	agg := &Aggregate[P, C]{Parent: parent, Children: []*C{}}

	err := e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(parent).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert parent: %w", err)
		}
		inserted, err := e.replaceChildren(ctx, tx, e.schema.ParentID(parent), children)
		if err != nil {
			return err
		}
		agg.Children = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// Get returns the aggregate after an ownership check. Read-only, no transaction.
func (e *Engine[P, C]) Get(ctx context.Context, resourceID, actorID uuid.UUID) (*Aggregate[P, C], error) {
	verdict, err := e.CheckOwnership(ctx, e.db, resourceID, actorID)
	if err != nil {
		return nil, err
	}
	if err := verdict.Err(); err != nil {
		return nil, err
	}
	return e.loadAggregate(ctx, resourceID)
}

// Update applies a partial update to the parent and, when newChildren is
// non-nil, replaces the child list, in one transaction. A nil newChildren
// leaves children untouched; a non-nil empty list clears them. When neither
// parent fields nor a children list is supplied, ErrNothingToUpdate is
// returned before any transaction is opened.
func (e *Engine[P, C]) Update(ctx context.Context, resourceID, actorID uuid.UUID, patch *UpdatePatch, newChildren *[]*C) (*Aggregate[P, C], error) {
	if patch.IsEmpty() && newChildren == nil {
		return nil, ErrNothingToUpdate
	}

	verdict, err := e.CheckOwnership(ctx, e.db, resourceID, actorID)
	if err != nil {
		return nil, err
	}
	if err := verdict.Err(); err != nil {
		return nil, err
	}

	err = e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// The touch column is bumped on every mutation, including a
		// children-only replacement: the aggregate changed either way.
		if !patch.IsEmpty() || e.schema.TouchColumn != "" {
			q := tx.NewUpdate().
				Model((*P)(nil)).
				Where("id = ?", resourceID)
			if !patch.IsEmpty() {
				var err error
				q, err = patch.Apply(q)
				if err != nil {
					return err
				}
			}
			if e.schema.TouchColumn != "" {
				q = q.Set("? = ?", bun.Ident(e.schema.TouchColumn), time.Now())
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("failed to update parent: %w", err)
			}
		}
		if newChildren != nil {
			if _, err := e.replaceChildren(ctx, tx, resourceID, *newChildren); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return e.loadAggregate(ctx, resourceID)
}

// Delete removes children then the parent in one transaction.
func (e *Engine[P, C]) Delete(ctx context.Context, resourceID, actorID uuid.UUID) error {
	verdict, err := e.CheckOwnership(ctx, e.db, resourceID, actorID)
	if err != nil {
		return err
	}
	if err := verdict.Err(); err != nil {
		return err
	}

	return e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*C)(nil)).
			Where("? = ?", bun.Ident(e.schema.ParentColumn), resourceID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete children: %w", err)
		}
		_, err = tx.NewDelete().
			Model((*P)(nil)).
			Where("id = ?", resourceID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete parent: %w", err)
		}
		return nil
	})
}

// List returns one page of the owner's aggregates. The collection-level
// ownership rule is equality: an actor may only list their own resources.
// Children are attached with one batched IN query over the page's parent ids.
func (e *Engine[P, C]) List(ctx context.Context, ownerID, actorID uuid.UUID, page, pageSize int) (*Page[P, C], error) {
	if ownerID != actorID {
		return nil, ErrForbidden
	}
	page, pageSize = NormalizePage(page, pageSize)

	var parents []*P
	q := e.db.NewSelect().
		Model(&parents).
		Where("? = ?", bun.Ident(e.schema.OwnerColumn), ownerID)
	for _, expr := range e.schema.SortExprs {
		q = q.OrderExpr(expr)
	}
	total, err := q.
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		ScanAndCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}

	parentIDs := make([]uuid.UUID, len(parents))
	for i, p := range parents {
		parentIDs[i] = e.schema.ParentID(p)
	}
	childrenByParent, err := e.loadChildren(ctx, parentIDs)
	if err != nil {
		return nil, err
	}

	items := make([]*Aggregate[P, C], len(parents))
	for i, p := range parents {
		children := childrenByParent[e.schema.ParentID(p)]
		if children == nil {
			children = []*C{}
		}
		items[i] = &Aggregate[P, C]{Parent: p, Children: children}
	}

	return &Page[P, C]{
		Items: items,
		Meta:  NewPageMeta(total, page, pageSize),
	}, nil
}

// replaceChildren deletes all children of parentID and inserts the
// replacement list inside the caller's transaction. An empty list is an
// explicit clear; inserted rows are returned in input order.
func (e *Engine[P, C]) replaceChildren(ctx context.Context, idb bun.IDB, parentID uuid.UUID, children []*C) ([]*C, error) {
	_, err := idb.NewDelete().
		Model((*C)(nil)).
		Where("? = ?", bun.Ident(e.schema.ParentColumn), parentID).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete children: %w", err)
	}

	if len(children) == 0 {
		return []*C{}, nil
	}

	for _, c := range children {
		e.schema.BindParent(c, parentID)
	}
	if _, err := idb.NewInsert().Model(&children).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert children: %w", err)
	}
	return children, nil
}

// loadAggregate fetches the parent row and its children. Callers run the
// ownership check first.
func (e *Engine[P, C]) loadAggregate(ctx context.Context, resourceID uuid.UUID) (*Aggregate[P, C], error) {
	parent := new(P)
	err := e.db.NewSelect().
		Model(parent).
		Where("id = ?", resourceID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}

	childrenByParent, err := e.loadChildren(ctx, []uuid.UUID{resourceID})
	if err != nil {
		return nil, err
	}
	children := childrenByParent[resourceID]
	if children == nil {
		children = []*C{}
	}

	return &Aggregate[P, C]{Parent: parent, Children: children}, nil
}

// loadChildren fetches the children for a set of parents with one query and
// groups them by parent id.
func (e *Engine[P, C]) loadChildren(ctx context.Context, parentIDs []uuid.UUID) (map[uuid.UUID][]*C, error) {
	result := make(map[uuid.UUID][]*C, len(parentIDs))
	if len(parentIDs) == 0 {
		return result, nil
	}

	var children []*C
	err := e.db.NewSelect().
		Model(&children).
		Where("? IN (?)", bun.Ident(e.schema.ParentColumn), bun.In(parentIDs)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load children: %w", err)
	}

	for _, c := range children {
		pid := e.schema.ChildParentID(c)
		result[pid] = append(result[pid], c)
	}
	return result, nil
}
