package board

import "errors"

var ErrBoardNotFound = errors.New("board not found")

// Board is a post category, e.g. "devlog" or "portfolio".
type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
