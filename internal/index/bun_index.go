// Package index keeps ArtifactSet manifests so artifacts can be described
// without scanning the store.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

var errDatabaseRequired = errors.New("index: bun index requires a database")

// BunIndex persists manifests in a SQL database through Bun.
type BunIndex struct {
	db *bun.DB
}

var _ interfaces.ManifestIndex = (*BunIndex)(nil)

// NewBunIndex wraps an existing Bun database. Call EnsureSchema before use.
func NewBunIndex(db *bun.DB) *BunIndex {
	return &BunIndex{db: db}
}

// OpenSQLite opens dsn with the sqlite3 driver and prepares the schema.
func OpenSQLite(ctx context.Context, dsn string) (*BunIndex, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("index: sqlite dsn is required")
	}
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("index: open sqlite: %w", err)
	}
	idx := NewBunIndex(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := idx.EnsureSchema(ctx); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return idx, nil
}

// EnsureSchema creates the manifest table when missing.
func (i *BunIndex) EnsureSchema(ctx context.Context) error {
	if i.db == nil {
		return errDatabaseRequired
	}
	if _, err := i.db.NewCreateTable().Model((*manifestModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("index: create table: %w", err)
	}
	_, err := i.db.NewCreateIndex().
		Model((*manifestModel)(nil)).
		Index("markmap_manifests_created_at_idx").
		IfNotExists().
		Column("created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("index: create index: %w", err)
	}
	return nil
}

// Record stores set. Recording the same id again replaces the row.
func (i *BunIndex) Record(ctx context.Context, set interfaces.ArtifactSet) error {
	if i.db == nil {
		return errDatabaseRequired
	}
	model := modelFromSet(set)
	_, err := i.db.NewInsert().
		Model(&model).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("created_at = EXCLUDED.created_at").
		Set("interactive = EXCLUDED.interactive").
		Set("preview = EXCLUDED.preview").
		Set("outline = EXCLUDED.outline").
		Exec(ctx)
	return err
}

func (i *BunIndex) Lookup(ctx context.Context, id string) (*interfaces.ArtifactSet, error) {
	if i.db == nil {
		return nil, errDatabaseRequired
	}
	var model manifestModel
	if err := i.db.NewSelect().Model(&model).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("manifest")
		}
		return nil, err
	}
	set := model.toSet()
	return &set, nil
}

func (i *BunIndex) Forget(ctx context.Context, ids ...string) error {
	if i.db == nil {
		return errDatabaseRequired
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := i.db.NewDelete().
		Model((*manifestModel)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	return err
}

// CreatedBefore lists manifests created before cutoff, oldest first.
func (i *BunIndex) CreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]interfaces.ArtifactSet, error) {
	if i.db == nil {
		return nil, errDatabaseRequired
	}
	var models []manifestModel
	query := i.db.NewSelect().Model(&models).Where("created_at < ?", cutoff.UTC()).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]interfaces.ArtifactSet, 0, len(models))
	for _, model := range models {
		out = append(out, model.toSet())
	}
	return out, nil
}

// Close releases the database.
func (i *BunIndex) Close() error {
	if i.db == nil {
		return nil
	}
	return i.db.Close()
}

type manifestModel struct {
	bun.BaseModel `bun:"table:markmap_manifests,alias:mm"`

	ID          string    `bun:"id,pk"`
	Title       string    `bun:"title,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	Interactive bool      `bun:"interactive,notnull"`
	Preview     bool      `bun:"preview,notnull"`
	Outline     bool      `bun:"outline,notnull"`
}

func modelFromSet(set interfaces.ArtifactSet) manifestModel {
	return manifestModel{
		ID:          set.ID,
		Title:       set.Title,
		CreatedAt:   set.CreatedAt.UTC(),
		Interactive: set.Has(interfaces.ArtifactInteractive),
		Preview:     set.Has(interfaces.ArtifactPreview),
		Outline:     set.Has(interfaces.ArtifactOutline),
	}
}

func (m manifestModel) toSet() interfaces.ArtifactSet {
	return interfaces.ArtifactSet{
		ID:        m.ID,
		Title:     m.Title,
		CreatedAt: m.CreatedAt.UTC(),
		Formats: map[interfaces.ArtifactKind]bool{
			interfaces.ArtifactInteractive: m.Interactive,
			interfaces.ArtifactPreview:     m.Preview,
			interfaces.ArtifactOutline:     m.Outline,
		},
	}
}
