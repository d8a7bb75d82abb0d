package activity

import (
	"net/http"
	"time"

	"github.com/ogg1996/ggdevlog/internal/telemetry/metrics"
	"github.com/ogg1996/ggdevlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type countsStore interface {
	Counts() (map[string]int, error)
	Increment(now time.Time) error
}

type Handler struct {
	store countsStore
	instr *metrics.Manager
}

func NewHandler(store countsStore, instr *metrics.Manager) *Handler {
	return &Handler{
		store: store,
		instr: instr,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.handleGet).Methods("GET").Name("get-activity")
	router.HandleFunc("", handler.handleIncrement).Methods("POST", "OPTIONS").Name("increment-activity")
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	counts, err := handler.store.Counts()
	if err != nil {
		log.Errorf("get activity: %s", err)
		pkg.WriteFail(w, "서버 오류", http.StatusInternalServerError)
		return
	}

	pkg.WriteSuccess(w, "활동 데이터 조회 성공", counts)
}

func (handler *Handler) handleIncrement(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := handler.store.Increment(time.Now()); err != nil {
		log.Errorf("increment activity: %s", err)
		pkg.WriteFail(w, "서버 오류", http.StatusInternalServerError)
		return
	}

	handler.instr.CounterVisits.Inc()
	pkg.WriteSuccess(w, "활동 카운트 증가 완료", nil)
}
