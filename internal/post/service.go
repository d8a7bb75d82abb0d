package post

import (
	"context"
	"fmt"

	"github.com/ogg1996/ggdevlog/internal/images"
	"github.com/ogg1996/ggdevlog/internal/telemetry/metrics"
	"github.com/ogg1996/ggdevlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Service coordinates the post record in the database with the images
// it references in the remote store.
type Service struct {
	repo  postRepo
	store images.Store
	instr *metrics.Manager
}

func NewService(repo postRepo, store images.Store, instr *metrics.Manager) *Service {
	return &Service{
		repo:  repo,
		store: store,
		instr: instr,
	}
}

// DeleteCascade removes the post's stored images first and only then
// the record itself, returning the name of the board the post belonged
// to. If any image cannot be deleted the record is kept and the whole
// operation can be retried. There is no transaction across the two
// stores.
func (s *Service) DeleteCascade(ctx context.Context, id int) (string, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postService.DeleteCascade")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	refs, err := s.repo.GetDeleteRefs(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "get-delete-refs")
		return "", err
	}

	if names := refs.ImageNames(); len(names) > 0 {
		if err := s.store.Delete(ctx, names); err != nil {
			span.SetStatus(codes.Error, "delete-images")
			span.RecordError(err)
			return "", fmt.Errorf("delete images of post %d: %w", id, err)
		}
		log.Debugf("post %d: %d images deleted", id, len(names))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, "delete-record")
		return "", fmt.Errorf("delete post %d record: %w", id, err)
	}

	s.instr.CounterPostCascadeDeletes.Inc()
	span.SetStatus(codes.Ok, "ok")
	return refs.BoardName, nil
}
