package post

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrPostNotFound = errors.New("post not found")

// Thumbnail is stored as jsonb on the post row, shaped the way the
// frontend editor saves it.
type Thumbnail struct {
	ImageName string `json:"image_name"`
	ImageURL  string `json:"image_url"`
}

type BoardRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Post is a blog entry. Content holds the frontend editor document
// verbatim; Images lists the names of every image referenced by it so
// a deletion can clean up the remote store.
type Post struct {
	ID          int             `json:"id"`
	Board       BoardRef        `json:"board"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Thumbnail   *Thumbnail      `json:"thumbnail"`
	Content     json.RawMessage `json:"content,omitempty"`
	Images      []string        `json:"images,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// DeleteRefs is the slice of a post needed for a cascading delete:
// which board it belonged to and which stored images it references.
type DeleteRefs struct {
	BoardName string
	Thumbnail *Thumbnail
	Images    []string
}

// ImageNames collects every stored object name the post references,
// thumbnail first.
func (refs *DeleteRefs) ImageNames() []string {
	var names []string
	if refs.Thumbnail != nil && refs.Thumbnail.ImageName != "" {
		names = append(names, refs.Thumbnail.ImageName)
	}
	names = append(names, refs.Images...)
	return names
}
