package images

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ogg1996/ggdevlog/internal/telemetry/metrics"
	"github.com/ogg1996/ggdevlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const uploadFormField = "img"

type Handler struct {
	store Store
	instr *metrics.Manager
}

func NewHandler(store Store, instr *metrics.Manager) *Handler {
	return &Handler{
		store: store,
		instr: instr,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.handleUpload).Methods("POST", "OPTIONS").Name("upload-image")
	router.HandleFunc("", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("delete-images")
}

// handleUpload streams the multipart image part straight to the store
// backend; nothing is buffered to the local disk
func (handler *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	part, err := uploadPart(r)
	if err != nil {
		log.Warnf("upload image failed, read multipart: %s", err)
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}
	defer part.Close()

	ref, err := handler.store.Upload(r.Context(), part, part.FileName())
	if err != nil {
		log.Errorf("upload image failed: %s", err)
		pkg.WriteFail(w, "이미지 업로드 실패", http.StatusInternalServerError)
		return
	}

	handler.instr.CounterImagesUploaded.Inc()
	pkg.WriteSuccess(w, "이미지 업로드 성공", ref)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var names []string
	if err := json.NewDecoder(r.Body).Decode(&names); err != nil {
		log.Warnf("delete images failed, decode request: %s", err)
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	if err := handler.store.Delete(r.Context(), names); err != nil {
		log.Errorf("delete images failed: %s", err)
		pkg.WriteFail(w, "이미지 삭제 실패", http.StatusInternalServerError)
		return
	}

	handler.instr.CounterImagesDeleted.Add(float64(len(names)))
	pkg.WriteSuccess(w, "이미지 삭제 성공", nil)
}

type multipartFile interface {
	io.ReadCloser
	FileName() string
}

type namedPart struct {
	io.ReadCloser
	fileName string
}

func (p *namedPart) FileName() string {
	return p.fileName
}

func uploadPart(r *http.Request) (multipartFile, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if part.FormName() == uploadFormField {
			return &namedPart{ReadCloser: part, fileName: part.FileName()}, nil
		}
	}

	return nil, errors.New("image form field missing")
}
