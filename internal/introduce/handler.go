package introduce

import (
	"encoding/json"
	"net/http"

	"github.com/ogg1996/ggdevlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type documentStore interface {
	Get() (Document, error)
	Set(doc Document) error
}

type Handler struct {
	store documentStore
}

func NewHandler(store documentStore) *Handler {
	return &Handler{
		store: store,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.handleGet).Methods("GET").Name("get-introduce")
	router.HandleFunc("", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("update-introduce")
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := handler.store.Get()
	if err != nil {
		log.Errorf("get introduce: %s", err)
		pkg.WriteFail(w, "서버 오류", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "자기소개 로드 성공", doc)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var doc Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		log.Warnf("update introduce, decode request: %s", err)
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	if err := handler.store.Set(doc); err != nil {
		log.Errorf("update introduce: %s", err)
		pkg.WriteFail(w, "서버 오류", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "자기소개 수정 완료", doc)
}
