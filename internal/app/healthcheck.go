package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// workerStatus is one entry of the /status response.
type workerStatus struct {
	Rank      int     `json:"rank"`
	Status    string  `json:"status"`
	Iteration *int    `json:"iteration,omitempty"`
	Heat      float64 `json:"heat"`
	Error     string  `json:"error,omitempty"`
}

// statusHandler reports the state of every worker this process knows about.
func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ranks, err := a.store.Ranks(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]workerStatus, 0, len(ranks))
	for _, rank := range ranks {
		ws := workerStatus{Rank: rank}
		status, err := a.store.GetStatus(ctx, rank)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		ws.Status = status.String()
		if p, ok, err := a.store.GetProgress(ctx, rank); err == nil && ok {
			iter := p.Iteration
			ws.Iteration = &iter
			ws.Heat = p.Heat
		}
		if workerErr, err := a.store.GetError(ctx, rank); err == nil && workerErr != nil {
			ws.Error = workerErr.Error()
		}
		out = append(out, ws)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		a.logger.Warn("Failed to write status response.", "error", err)
	}
}

func (a *App) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/status", a.statusHandler)
	return mux
}

// startHealthcheckServer initializes and runs the health check HTTP server.
func (a *App) startHealthcheckServer(port int) {
	a.logger.Debug("Configuring health check server.")
	addr := fmt.Sprintf(":%d", port)
	a.httpServer = &http.Server{
		Addr:    addr,
		Handler: a.healthMux(),
	}

	go func() {
		a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeHealthcheckServer(ctx context.Context) error {
	if a.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	a.httpServer = nil
	return nil
}
