package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ogg1996/ggdevlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const githubAPIBase = "https://api.github.com"

// GithubStore keeps images as files in a dedicated git repository,
// using the contents API. The public URL is the raw download URL
// returned on upload.
type GithubStore struct {
	httpClient *http.Client
	apiBase    string
	owner      string
	repo       string
	branch     string
	token      string
}

type NewGithubStoreParams struct {
	HTTPClient *http.Client
	// APIBase overrides the github API endpoint, used in tests
	APIBase string
	Owner   string
	Repo    string
	Branch  string
	Token   string
}

func NewGithubStore(params NewGithubStoreParams) *GithubStore {
	apiBase := params.APIBase
	if apiBase == "" {
		apiBase = githubAPIBase
	}
	return &GithubStore{
		httpClient: params.HTTPClient,
		apiBase:    apiBase,
		owner:      params.Owner,
		repo:       params.Repo,
		branch:     params.Branch,
		token:      params.Token,
	}
}

func (s *GithubStore) contentsURL(name string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/images/%s", s.apiBase, s.owner, s.repo, name)
}

func (s *GithubStore) Upload(ctx context.Context, r io.Reader, originalFilename string) (ImageRef, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "images.github.upload")
	defer span.End()

	content, err := io.ReadAll(r)
	if err != nil {
		return ImageRef{}, fmt.Errorf("read image content: %w", err)
	}

	name := objectName(originalFilename, time.Now())

	reqBody, err := json.Marshal(struct {
		Message string `json:"message"`
		Content string `json:"content"`
		Branch  string `json:"branch"`
	}{
		Message: fmt.Sprintf("upload image: %s", name),
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  s.branch,
	})
	if err != nil {
		return ImageRef{}, fmt.Errorf("marshal upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(name), bytes.NewReader(reqBody))
	if err != nil {
		return ImageRef{}, fmt.Errorf("create upload request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ImageRef{}, fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return ImageRef{}, fmt.Errorf("upload image %s: unexpected status %d", name, resp.StatusCode)
	}

	var uploadResp struct {
		Content struct {
			DownloadURL string `json:"download_url"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return ImageRef{}, fmt.Errorf("decode upload response: %w", err)
	}

	return ImageRef{
		Name: name,
		URL:  uploadResp.Content.DownloadURL,
	}, nil
}

// Delete removes the named images one by one; the contents API needs
// the current blob sha before it accepts a deletion. Names that fail
// are collected and reported together, the rest stay deleted.
func (s *GithubStore) Delete(ctx context.Context, names []string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "images.github.delete")
	defer span.End()

	var failed []string
	var errs error
	for _, name := range names {
		if err := s.deleteOne(ctx, name); err != nil {
			log.Errorf("delete image %s: %s", name, err)
			failed = append(failed, name)
			errs = multierr.Append(errs, err)
		}
	}

	if len(failed) > 0 {
		return &DeleteError{Failed: failed, err: errs}
	}
	return nil
}

func (s *GithubStore) deleteOne(ctx context.Context, name string) error {
	sha, err := s.blobSha(ctx, name)
	if err != nil {
		return err
	}

	reqBody, err := json.Marshal(struct {
		Message string `json:"message"`
		Sha     string `json:"sha"`
		Branch  string `json:"branch"`
	}{
		Message: fmt.Sprintf("delete image: %s", name),
		Sha:     sha,
		Branch:  s.branch,
	})
	if err != nil {
		return fmt.Errorf("marshal delete request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.contentsURL(name), bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete image %s: unexpected status %d", name, resp.StatusCode)
	}
	return nil
}

func (s *GithubStore) blobSha(ctx context.Context, name string) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s?ref=%s", s.contentsURL(name), s.branch),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("create sha request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get sha for %s: unexpected status %d", name, resp.StatusCode)
	}

	var shaResp struct {
		Sha string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&shaResp); err != nil {
		return "", fmt.Errorf("decode sha response: %w", err)
	}
	return shaResp.Sha, nil
}

func (s *GithubStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("token %s", s.token))
	req.Header.Set("Accept", "application/vnd.github+json")
}
