package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"balance-sync/internal/worker/config"
	"balance-sync/internal/worker/service"
	"balance-sync/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const tracerName = "balance-sync-http"

// Triggerer 由 service.Synchronizer 实现
type Triggerer interface {
	Trigger(ctx context.Context, credential string) (*service.SyncSummary, error)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Server 手动/外部调度触发同步的 HTTP 入口
type Server struct {
	cfg     config.ServerConfig
	trigger Triggerer
	tl      *zap.Logger
	server  *http.Server
}

func NewServer(cfg config.ServerConfig, trigger Triggerer, tl *zap.Logger) *Server {
	s := &Server{cfg: cfg, trigger: trigger, tl: tl}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	return r
}

// Run 启动 HTTP 服务
func (s *Server) Run() {
	go func() {
		s.tl.Info("sync trigger server listening", zap.String("addr", s.cfg.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.tl.Error("sync trigger server stopped", zap.Error(err))
		}
	}()
}

// Stop 优雅关闭 HTTP 服务
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := logger.StartSpanWithRequest(r, tracerName, "POST /api/v1/sync")
	defer span.End()

	summary, err := s.trigger.Trigger(ctx, credential(r))
	if err != nil {
		status, msg := http.StatusInternalServerError, "Internal server error"
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			status, msg = http.StatusUnauthorized, "Unauthorized"
		case errors.Is(err, service.ErrRunInProgress):
			status, msg = http.StatusConflict, "Sync already in progress"
		default:
			logger.NewLoggerWithTrace(ctx, s.tl).Error("sync trigger failed", zap.Error(err))
		}
		s.respond(w, status, errorResponse{Success: false, Message: msg})
		return
	}
	s.respond(w, http.StatusOK, summary)
}

// credential 支持 Authorization: Bearer 和 X-Sync-Secret
func credential(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.Header.Get("X-Sync-Secret")
}

func (s *Server) respond(w http.ResponseWriter, status int, body interface{}) {
	data, err := sonic.Marshal(body)
	if err != nil {
		s.tl.Error("marshal response failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
