package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// NewControlRouter serves the calibration trigger, status and the live
// outcome stream.
func NewControlRouter(ctrl Controller, hub *Hub) *mux.Router {
	r := mux.NewRouter()

	// Any request toggles calibration mode, as the door firmware expects.
	r.HandleFunc("/calibrate", func(w http.ResponseWriter, _ *http.Request) {
		tr := ctrl.Toggle()
		hub.Broadcast(WSResponse{Type: "transition", Transition: &tr})
		writeJSON(w, http.StatusOK, tr)
	}).Methods(http.MethodGet, http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.Status())
	}).Methods(http.MethodGet)
	api.HandleFunc("/retrain", func(w http.ResponseWriter, req *http.Request) {
		if err := ctrl.Retrain(req.Context()); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, ctrl.Status())
	}).Methods(http.MethodPost)

	r.HandleFunc("/ws", hub.HandleWS(ctrl))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("control: json encode error: %v", err)
	}
}

// RunControlServer serves h on addr until ctx is cancelled.
func RunControlServer(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("control: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
