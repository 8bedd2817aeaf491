package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/samirrijal/zonebuf/internal/core/domain"
)

// AssignmentRow is one buffer polygon ready for insertion.
type AssignmentRow struct {
	Street       string
	Letter       *string
	LengthMeters float64
	WKT          string
}

// AssignmentRows converts the buffers of res into rows; geometries are WKT polygons.
func AssignmentRows(res *domain.ZoneResult) []AssignmentRow {
	rows := make([]AssignmentRow, 0, len(res.Buffers))
	for _, b := range res.Buffers {
		rows = append(rows, AssignmentRow{
			Street:       b.Street,
			Letter:       b.Label,
			LengthMeters: b.LengthMeters,
			WKT:          wkt.MarshalString(orb.Polygon{b.Ring}),
		})
	}
	return rows
}

// ZoneRepo stores boundaries and their assignment buffers in PostGIS. It implements
// ports.Publisher and ports.BoundarySource.
type ZoneRepo struct {
	db *DB
}

// NewZoneRepo creates a new ZoneRepo.
func NewZoneRepo(db *DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

// PublishZone writes the zone in one transaction (see WriteZone).
func (r *ZoneRepo) PublishZone(ctx context.Context, res *domain.ZoneResult) error {
	defer r.db.ReportPool()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := WriteZone(ctx, tx, res); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Querier is the part of pgx.Tx that WriteZone needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// WriteZone finds or creates the folder of the zone, moves the boundary shape into it
// and replaces the assignments of that shape with one row per buffer. Writing the same
// zone twice leaves a single copy of its assignments.
func WriteZone(ctx context.Context, q Querier, res *domain.ZoneResult) error {
	var folderID string
	err := q.QueryRow(ctx, `
		INSERT INTO folders (title) VALUES ($1)
		ON CONFLICT (title) DO UPDATE SET title = EXCLUDED.title
		RETURNING id
	`, res.Folder()).Scan(&folderID)
	if err != nil {
		return fmt.Errorf("folder %q: %w", res.Folder(), err)
	}

	shapeID := res.Boundary.ID
	_, err = q.Exec(ctx, `
		INSERT INTO shapes (id, title, folder_id, geom)
		VALUES ($1, $2, $3, ST_GeomFromText($4, 4326))
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, folder_id = EXCLUDED.folder_id, geom = EXCLUDED.geom
	`, shapeID, res.Boundary.Name, folderID, wkt.MarshalString(res.Boundary.Polygon))
	if err != nil {
		return fmt.Errorf("shape %q: %w", shapeID, err)
	}

	if _, err := q.Exec(ctx, `DELETE FROM assignments WHERE shape_id = $1`, shapeID); err != nil {
		return fmt.Errorf("clear assignments of %q: %w", shapeID, err)
	}

	rows := AssignmentRows(res)
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO assignments (shape_id, folder_id, street, letter, length_m, geom)
			VALUES ($1, $2, $3, $4, $5, ST_GeomFromText($6, 4326))
		`, shapeID, folderID, row.Street, row.Letter, row.LengthMeters, row.WKT)
	}
	br := q.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}
	return nil
}

// Boundaries returns every stored shape, folder members included.
func (r *ZoneRepo) Boundaries(ctx context.Context) ([]domain.Boundary, error) {
	defer r.db.ReportPool()

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, title, ST_AsText(geom) FROM shapes ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Boundary
	for rows.Next() {
		var id, title, text string
		if err := rows.Scan(&id, &title, &text); err != nil {
			return nil, err
		}
		poly, err := wkt.UnmarshalPolygon(text)
		if err != nil {
			return nil, fmt.Errorf("shape %q: %w", id, err)
		}
		out = append(out, domain.Boundary{ID: id, Name: title, Polygon: poly})
	}
	return out, rows.Err()
}
