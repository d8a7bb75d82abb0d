package board

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ogg1996/ggdevlog/internal/telemetry/tracing"
)

var _ boardRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) List(ctx context.Context) ([]Board, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "boardRepo.List")
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT id, name FROM board ORDER BY name ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return boards, nil
}

func (r *Repo) Add(ctx context.Context, name string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "boardRepo.Add")
	defer span.End()

	_, err := r.db.Exec(ctx, `INSERT INTO board (name) VALUES ($1);`, name)
	return err
}

func (r *Repo) Update(ctx context.Context, id int, name string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "boardRepo.Update")
	defer span.End()

	tag, err := r.db.Exec(ctx, `UPDATE board SET name = $1 WHERE id = $2;`, name, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBoardNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "boardRepo.Delete")
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM board WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBoardNotFound
	}
	return nil
}
