package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ogg1996/ggdevlog/internal/telemetry/tracing"
)

// SupabaseStore keeps images in a public supabase storage bucket. The
// storage API supports batch removal, so a failed Delete reports the
// whole batch as still present.
type SupabaseStore struct {
	httpClient *http.Client
	projectURL string
	bucket     string
	serviceKey string
}

type NewSupabaseStoreParams struct {
	HTTPClient *http.Client
	ProjectURL string
	Bucket     string
	ServiceKey string
}

func NewSupabaseStore(params NewSupabaseStoreParams) *SupabaseStore {
	return &SupabaseStore{
		httpClient: params.HTTPClient,
		projectURL: strings.TrimSuffix(params.ProjectURL, "/"),
		bucket:     params.Bucket,
		serviceKey: params.ServiceKey,
	}
}

func (s *SupabaseStore) Upload(ctx context.Context, r io.Reader, originalFilename string) (ImageRef, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "images.supabase.upload")
	defer span.End()

	name := objectName(originalFilename, time.Now())

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/storage/v1/object/%s/%s", s.projectURL, s.bucket, name),
		r,
	)
	if err != nil {
		return ImageRef{}, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.serviceKey))
	req.Header.Set("Content-Type", contentTypeForName(name))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ImageRef{}, fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return ImageRef{}, fmt.Errorf("upload image %s: unexpected status %d", name, resp.StatusCode)
	}

	return ImageRef{
		Name: name,
		URL:  fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.projectURL, s.bucket, name),
	}, nil
}

func (s *SupabaseStore) Delete(ctx context.Context, names []string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "images.supabase.delete")
	defer span.End()

	if len(names) == 0 {
		return nil
	}

	reqBody, err := json.Marshal(struct {
		Prefixes []string `json:"prefixes"`
	}{
		Prefixes: names,
	})
	if err != nil {
		return fmt.Errorf("marshal delete request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodDelete,
		fmt.Sprintf("%s/storage/v1/object/%s", s.projectURL, s.bucket),
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.serviceKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &DeleteError{
			Failed: names,
			err:    fmt.Errorf("%w: %s", ErrBackendUnavailable, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DeleteError{
			Failed: names,
			err:    fmt.Errorf("delete batch: unexpected status %d", resp.StatusCode),
		}
	}

	return nil
}

func contentTypeForName(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
