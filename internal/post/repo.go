package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ogg1996/ggdevlog/internal/telemetry/tracing"
)

var _ postRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// List returns one page of posts, newest first, plus the total count
// of posts matching the board filter. boardName "all" disables the
// filter. Content and images are left out of list items.
func (r *Repo) List(ctx context.Context, boardName string, page, limit int) ([]*Post, int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postRepo.List")
	span.SetAttributes(attribute.String("boardName", boardName))
	span.SetAttributes(attribute.Int("page", page))
	defer span.End()

	whereClause := ""
	args := []interface{}{limit, (page - 1) * limit}
	if boardName != "all" {
		whereClause = "WHERE b.name = $3"
		args = append(args, boardName)
	}

	rows, err := r.db.Query(
		ctx,
		fmt.Sprintf(`
			SELECT p.id, b.id, b.name, p.title, p.description, p.thumbnail, p.created_at
			FROM post p
			JOIN board b ON b.id = p.board_id
			%s
			ORDER BY p.created_at DESC
			LIMIT $1
			OFFSET $2;
		`, whereClause),
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		p := &Post{}
		var thumbnailRaw []byte
		if err := rows.Scan(
			&p.ID, &p.Board.ID, &p.Board.Name,
			&p.Title, &p.Description, &thumbnailRaw, &p.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		if p.Thumbnail, err = unmarshalThumbnail(thumbnailRaw); err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, boardName)
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *Repo) count(ctx context.Context, boardName string) (int, error) {
	query := `SELECT COUNT(*) FROM post p JOIN board b ON b.id = p.board_id`
	var args []interface{}
	if boardName != "all" {
		query += ` WHERE b.name = $1`
		args = append(args, boardName)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repo) Get(ctx context.Context, id int) (*Post, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postRepo.Get")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	p := &Post{}
	var thumbnailRaw []byte
	err := r.db.QueryRow(
		ctx,
		`
			SELECT p.id, b.id, b.name, p.title, p.description, p.thumbnail,
				p.content, p.images, p.created_at, p.updated_at
			FROM post p
			JOIN board b ON b.id = p.board_id
			WHERE p.id = $1;
		`,
		id,
	).Scan(
		&p.ID, &p.Board.ID, &p.Board.Name, &p.Title, &p.Description,
		&thumbnailRaw, &p.Content, &p.Images, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if p.Thumbnail, err = unmarshalThumbnail(thumbnailRaw); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *Repo) Add(ctx context.Context, p *Post) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postRepo.Add")
	defer span.End()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	thumbnailRaw, err := marshalThumbnail(p.Thumbnail)
	if err != nil {
		return 0, err
	}

	var id int
	err = r.db.QueryRow(
		ctx,
		`
			INSERT INTO post (board_id, title, description, thumbnail, content, images, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;
		`,
		p.Board.ID, p.Title, p.Description, thumbnailRaw, p.Content, p.Images, p.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	p.ID = id
	return id, nil
}

func (r *Repo) Update(ctx context.Context, id int, p *Post) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postRepo.Update")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	thumbnailRaw, err := marshalThumbnail(p.Thumbnail)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`
			UPDATE post
			SET board_id = $1, title = $2, description = $3, thumbnail = $4,
				content = $5, images = $6, updated_at = NOW()
			WHERE id = $7;
		`,
		p.Board.ID, p.Title, p.Description, thumbnailRaw, p.Content, p.Images, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postRepo.Delete")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM post WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// GetDeleteRefs loads just the fields a cascading delete needs.
func (r *Repo) GetDeleteRefs(ctx context.Context, id int) (*DeleteRefs, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postRepo.GetDeleteRefs")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	refs := &DeleteRefs{}
	var thumbnailRaw []byte
	err := r.db.QueryRow(
		ctx,
		`
			SELECT b.name, p.thumbnail, p.images
			FROM post p
			JOIN board b ON b.id = p.board_id
			WHERE p.id = $1;
		`,
		id,
	).Scan(&refs.BoardName, &thumbnailRaw, &refs.Images)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if refs.Thumbnail, err = unmarshalThumbnail(thumbnailRaw); err != nil {
		return nil, err
	}

	return refs, nil
}

func unmarshalThumbnail(raw []byte) (*Thumbnail, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	thumbnail := &Thumbnail{}
	if err := json.Unmarshal(raw, thumbnail); err != nil {
		return nil, fmt.Errorf("unmarshal thumbnail: %w", err)
	}
	return thumbnail, nil
}

func marshalThumbnail(thumbnail *Thumbnail) ([]byte, error) {
	if thumbnail == nil {
		return nil, nil
	}
	raw, err := json.Marshal(thumbnail)
	if err != nil {
		return nil, fmt.Errorf("marshal thumbnail: %w", err)
	}
	return raw, nil
}
