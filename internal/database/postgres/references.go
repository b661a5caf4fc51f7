package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance-cam/internal/database"
	"github.com/pgvector/pgvector-go"
)

// ReferenceRepository caches gallery reference embeddings in PostgreSQL (pgvector).
type ReferenceRepository struct {
	pool *Pool
}

// NewReferenceRepository creates a new reference cache repository
func NewReferenceRepository(pool *Pool) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// Load returns the cached representations for the key
func (r *ReferenceRepository) Load(ctx context.Context, key database.CacheKey) ([]database.StoredReference, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT file_name, identity, embedding, created_at
		FROM gallery_references
		WHERE model = $1 AND detector = $2
		ORDER BY file_name
	`, key.Model, key.Detector)
	if err != nil {
		return nil, fmt.Errorf("query gallery references: %w", err)
	}
	defer rows.Close()

	var refs []database.StoredReference
	for rows.Next() {
		var vec pgvector.Vector
		ref := database.StoredReference{Model: key.Model, Detector: key.Detector}
		if err := rows.Scan(&ref.FileName, &ref.Identity, &vec, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan gallery reference: %w", err)
		}
		ref.Embedding = vec.Slice()
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery references: %w", err)
	}
	return refs, nil
}

// Save replaces the cached representations for the key in one transaction
func (r *ReferenceRepository) Save(ctx context.Context, key database.CacheKey, refs []database.StoredReference) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM gallery_references WHERE model = $1 AND detector = $2",
		key.Model, key.Detector,
	); err != nil {
		return fmt.Errorf("delete gallery references: %w", err)
	}

	for i := range refs {
		ref := &refs[i]
		if len(ref.Embedding) == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gallery_references (model, detector, file_name, identity, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, key.Model, key.Detector, ref.FileName, ref.Identity, pgvector.NewVector(ref.Embedding), ref.CreatedAt); err != nil {
			return fmt.Errorf("insert gallery reference %s: %w", ref.FileName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit gallery references: %w", err)
	}
	return nil
}

// Reset removes every cached representation
func (r *ReferenceRepository) Reset(ctx context.Context) error {
	if _, err := r.pool.db.ExecContext(ctx, "DELETE FROM gallery_references"); err != nil {
		return fmt.Errorf("reset gallery references: %w", err)
	}
	return nil
}
