package post

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ogg1996/ggdevlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPageLimit = 5
	allBoards        = "all"
)

type postRepo interface {
	List(ctx context.Context, boardName string, page, limit int) ([]*Post, int, error)
	Get(ctx context.Context, id int) (*Post, error)
	Add(ctx context.Context, p *Post) (int, error)
	Update(ctx context.Context, id int, p *Post) error
	Delete(ctx context.Context, id int) error
	GetDeleteRefs(ctx context.Context, id int) (*DeleteRefs, error)
}

type listResponse struct {
	BoardName string  `json:"board_name"`
	Page      int     `json:"page"`
	Limit     int     `json:"limit"`
	Total     int     `json:"total"`
	TotalPage int     `json:"totalPage"`
	Data      []*Post `json:"data"`
}

type postRequest struct {
	BoardID     int             `json:"board_id"`
	Title       string          `json:"title"`
	Thumbnail   *Thumbnail      `json:"thumbnail"`
	Description string          `json:"description"`
	Content     json.RawMessage `json:"content"`
	Images      []string        `json:"images"`
}

type Handler struct {
	repo    postRepo
	service *Service
}

func NewHandler(repo postRepo, service *Service) *Handler {
	return &Handler{
		repo:    repo,
		service: service,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.handleList).Methods("GET").Name("list-posts")
	router.HandleFunc("", handler.handleAdd).Methods("POST", "OPTIONS").Name("add-post")
	router.HandleFunc("/{id}", handler.handleGet).Methods("GET").Name("get-post")
	router.HandleFunc("/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("update-post")
	router.HandleFunc("/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("delete-post")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	boardName := r.URL.Query().Get("board_name")
	if boardName == "" {
		boardName = allBoards
	}
	page := intQueryParam(r, "page", 1)
	limit := intQueryParam(r, "limit", defaultPageLimit)

	posts, total, err := handler.repo.List(r.Context(), boardName, page, limit)
	if err != nil {
		log.Errorf("list posts: %s", err)
		pkg.WriteFail(w, "DB 오류", http.StatusInternalServerError)
		return
	}

	totalPage := (total + limit - 1) / limit

	pkg.WriteSuccess(w, "게시글 목록 조회 성공", listResponse{
		BoardName: boardName,
		Page:      page,
		Limit:     limit,
		Total:     total,
		TotalPage: totalPage,
		Data:      posts,
	})
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	p, err := handler.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			pkg.WriteFail(w, "존재하지 않는 게시글", http.StatusNotFound)
			return
		}
		log.Errorf("get post %d: %s", id, err)
		pkg.WriteFail(w, "DB 오류", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "게시글 상세 로드 성공", p)
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warnf("add post, decode request: %s", err)
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	id, err := handler.repo.Add(r.Context(), req.toPost())
	if err != nil {
		log.Errorf("add post: %s", err)
		pkg.WriteFail(w, "DB 오류", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "게시글 추가 성공", map[string]int{"post_id": id})
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, PUT, DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := postID(r)
	if err != nil {
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warnf("update post %d, decode request: %s", id, err)
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(r.Context(), id, req.toPost()); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			pkg.WriteFail(w, "존재하지 않는 게시글", http.StatusNotFound)
			return
		}
		log.Errorf("update post %d: %s", id, err)
		pkg.WriteFail(w, "DB 오류", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "게시글 수정 성공", map[string]int{"post_id": id})
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, PUT, DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := postID(r)
	if err != nil {
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	boardName, err := handler.service.DeleteCascade(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			pkg.WriteFail(w, "존재하지 않는 게시글", http.StatusNotFound)
			return
		}
		log.Errorf("delete post %d: %s", id, err)
		pkg.WriteFail(w, "게시글 삭제 실패", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "게시글 삭제 성공", map[string]string{"board_name": boardName})
}

func (req *postRequest) toPost() *Post {
	return &Post{
		Board:       BoardRef{ID: req.BoardID},
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		Content:     req.Content,
		Images:      req.Images,
	}
}

func postID(r *http.Request) (int, error) {
	vars := mux.Vars(r)
	return strconv.Atoi(vars["id"])
}

func intQueryParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
