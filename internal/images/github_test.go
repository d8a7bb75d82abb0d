package images

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGithubAPI emulates the slice of the contents API the store uses:
// PUT to create, GET for the blob sha, DELETE to remove.
type fakeGithubAPI struct {
	t *testing.T

	mu      sync.Mutex
	objects map[string]string // name -> base64 content

	failDeleteFor map[string]bool
}

func newFakeGithubAPI(t *testing.T) *fakeGithubAPI {
	return &fakeGithubAPI{
		t:             t,
		objects:       make(map[string]string),
		failDeleteFor: make(map[string]bool),
	}
}

func (f *fakeGithubAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, "token test-token", r.Header.Get("Authorization"))

		name := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodPut:
			var req struct {
				Message string `json:"message"`
				Content string `json:"content"`
				Branch  string `json:"branch"`
			}
			require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(f.t, "main", req.Branch)

			f.objects[name] = req.Content
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"content":{"download_url":"https://raw.example.com/images/%s"}}`, name)

		case http.MethodGet:
			if _, ok := f.objects[name]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprintf(w, `{"sha":"sha-of-%s"}`, name)

		case http.MethodDelete:
			if f.failDeleteFor[name] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			var req struct {
				Sha    string `json:"sha"`
				Branch string `json:"branch"`
			}
			require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(f.t, fmt.Sprintf("sha-of-%s", name), req.Sha)

			delete(f.objects, name)
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{}`)
		}
	})
}

func newTestGithubStore(t *testing.T) (*GithubStore, *fakeGithubAPI) {
	api := newFakeGithubAPI(t)
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	store := NewGithubStore(NewGithubStoreParams{
		HTTPClient: server.Client(),
		APIBase:    server.URL,
		Owner:      "ogg1996",
		Repo:       "ggdevlog-img-uploads",
		Branch:     "main",
		Token:      "test-token",
	})
	return store, api
}

func TestGithubStore_UploadDeleteRoundTrip(t *testing.T) {
	store, api := newTestGithubStore(t)
	ctx := context.Background()

	ref, err := store.Upload(ctx, strings.NewReader("fake png bytes"), "photo.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.Name, "img_"))
	assert.True(t, strings.HasSuffix(ref.Name, ".png"))
	assert.Equal(t, fmt.Sprintf("https://raw.example.com/images/%s", ref.Name), ref.URL)

	stored, ok := api.objects[ref.Name]
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(stored)
	require.NoError(t, err)
	assert.Equal(t, "fake png bytes", string(decoded))

	require.NoError(t, store.Delete(ctx, []string{ref.Name}))
	assert.Empty(t, api.objects)
}

func TestGithubStore_DeletePartialFailure(t *testing.T) {
	store, api := newTestGithubStore(t)
	ctx := context.Background()

	ref1, err := store.Upload(ctx, strings.NewReader("one"), "one.png")
	require.NoError(t, err)
	ref2, err := store.Upload(ctx, strings.NewReader("two"), "two.jpg")
	require.NoError(t, err)

	api.failDeleteFor[ref2.Name] = true

	err = store.Delete(ctx, []string{ref1.Name, ref2.Name})
	require.Error(t, err)

	var deleteErr *DeleteError
	require.True(t, errors.As(err, &deleteErr))
	assert.Equal(t, []string{ref2.Name}, deleteErr.Failed)

	// the one that could be deleted is gone
	assert.NotContains(t, api.objects, ref1.Name)
	assert.Contains(t, api.objects, ref2.Name)
}

func TestGithubStore_DeleteMissingObject(t *testing.T) {
	store, _ := newTestGithubStore(t)

	err := store.Delete(context.Background(), []string{"img_404.png"})
	require.Error(t, err)

	var deleteErr *DeleteError
	require.True(t, errors.As(err, &deleteErr))
	assert.Equal(t, []string{"img_404.png"}, deleteErr.Failed)
}
