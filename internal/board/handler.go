package board

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

type boardRepo interface {
	List(ctx context.Context) ([]Board, error)
	Add(ctx context.Context, name string) error
	Update(ctx context.Context, id int, name string) error
	Delete(ctx context.Context, id int) error
}

type boardRequest struct {
	Name string `json:"name"`
}

type Handler struct {
	repo boardRepo
}

func NewHandler(repo boardRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.handleList).Methods("GET").Name("list-boards")
	router.HandleFunc("", handler.handleAdd).Methods("POST", "OPTIONS").Name("add-board")
	router.HandleFunc("/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("update-board")
	router.HandleFunc("/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("delete-board")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	boards, err := handler.repo.List(r.Context())
	if err != nil {
		log.Errorf("list boards: %s", err)
		pkg.WriteFail(w, "DB 오류", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "게시판 목록 조회 성공", boards)
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var req boardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Add(r.Context(), req.Name); err != nil {
		log.Errorf("add board: %s", err)
		pkg.WriteFail(w, "DB 오류", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "게시판 추가 성공", nil)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := boardID(r)
	if err != nil {
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	var req boardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(r.Context(), id, req.Name); err != nil {
		if errors.Is(err, ErrBoardNotFound) {
			pkg.WriteFail(w, "존재하지 않는 게시판", http.StatusNotFound)
			return
		}
		log.Errorf("update board %d: %s", id, err)
		pkg.WriteFail(w, "DB 오류", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "게시판 수정 성공", nil)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := boardID(r)
	if err != nil {
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrBoardNotFound) {
			pkg.WriteFail(w, "존재하지 않는 게시판", http.StatusNotFound)
			return
		}
		log.Errorf("delete board %d: %s", id, err)
		pkg.WriteFail(w, "DB 오류", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "게시판 삭제 성공", nil)
}

func boardID(r *http.Request) (int, error) {
	vars := mux.Vars(r)
	return strconv.Atoi(vars["id"])
}
