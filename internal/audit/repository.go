package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WindowParams membatasi query timeline pada satu jendela halaman.
type WindowParams struct {
	TenantID   *uuid.UUID
	From       time.Time
	To         time.Time
	ActorID    *uuid.UUID
	Entity     string
	Action     string
	OffsetRows int32
	LimitRows  int32
}

// Repository menyediakan akses baca ke tabel audit_logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository membuat repository audit baru.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TimelineWindow mengambil satu jendela baris audit, terbaru lebih dulu.
// Filter nil atau kosong diabaikan lewat predikat OR di SQL.
func (r *Repository) TimelineWindow(ctx context.Context, p WindowParams) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT occurred_at, actor_id, tenant_id, action, entity, entity_id, message, before, after
		 FROM audit_logs
		 WHERE ($1::uuid IS NULL OR tenant_id = $1)
		   AND ($2::timestamptz IS NULL OR occurred_at >= $2)
		   AND ($3::timestamptz IS NULL OR occurred_at <= $3)
		   AND ($4::uuid IS NULL OR actor_id = $4)
		   AND ($5::text = '' OR entity = $5)
		   AND ($6::text = '' OR action = $6)
		 ORDER BY occurred_at DESC
		 OFFSET $7 LIMIT $8`,
		p.TenantID, nullableTime(p.From), nullableTime(p.To), p.ActorID,
		p.Entity, p.Action, p.OffsetRows, p.LimitRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		if err := rows.Scan(&row.At, &row.ActorID, &row.TenantID, &row.Action, &row.Entity,
			&row.EntityID, &row.Message, &row.Before, &row.After); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PurgeBefore menghapus baris audit yang lebih tua dari cutoff dan
// mengembalikan jumlah baris yang terhapus.
func (r *Repository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
