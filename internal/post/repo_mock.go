package post

import (
	"context"
	"sort"
	"sync"
)

var _ postRepo = (*repoMock)(nil)

type repoMock struct {
	Posts  map[int]*Post
	nextID int
	mutex  sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Posts:  make(map[int]*Post),
		nextID: 1,
	}
}

func (r *repoMock) PostsCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.Posts)
}

func (r *repoMock) List(_ context.Context, boardName string, page, limit int) ([]*Post, int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var all []*Post
	for _, p := range r.Posts {
		if boardName != allBoards && p.Board.Name != boardName {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	from := (page - 1) * limit
	if from >= total {
		return nil, total, nil
	}
	to := from + limit
	if to > total {
		to = total
	}
	return all[from:to], total, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Post, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.Posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	return p, nil
}

func (r *repoMock) Add(_ context.Context, p *Post) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p.ID = r.nextID
	r.nextID++
	r.Posts[p.ID] = p
	return p.ID, nil
}

func (r *repoMock) Update(_ context.Context, id int, p *Post) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Posts[id]; !ok {
		return ErrPostNotFound
	}
	p.ID = id
	r.Posts[id] = p
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Posts[id]; !ok {
		return ErrPostNotFound
	}
	delete(r.Posts, id)
	return nil
}

func (r *repoMock) GetDeleteRefs(_ context.Context, id int) (*DeleteRefs, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.Posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	return &DeleteRefs{
		BoardName: p.Board.Name,
		Thumbnail: p.Thumbnail,
		Images:    p.Images,
	}, nil
}
