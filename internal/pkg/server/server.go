package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
	"github.com/anicoll/pool-monitor/internal/pkg/model"
	"github.com/anicoll/pool-monitor/pkg/hasher"
)

const (
	serverError  = "Server error!"
	csvTimestamp = "1/2/2006 3:04:05 PM"
)

//go:embed static
var staticFiles embed.FS

type poller interface {
	RunOnce(ctx context.Context) (model.Reading, error)
}

type readingStore interface {
	RecentReadings(ctx context.Context, limit int) (model.Readings, error)
	Ping(ctx context.Context) error
}

type server struct {
	poller    poller
	readings  readingStore
	live      http.Handler
	static    fs.FS
	location  *time.Location
	tokenHash string
	logger    *zap.Logger
}

func New(cfg config.ServerConfig, poller poller, readings readingStore, live http.Handler) (*server, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
	}
	static, err := staticFS(staticFiles)
	if err != nil {
		return nil, err
	}
	return &server{
		poller:    poller,
		readings:  readings,
		live:      live,
		static:    static,
		location:  location,
		tokenHash: cfg.TriggerTokenHash,
		logger:    zap.L(),
	}, nil
}

// Handler routes every endpoint through the logging middleware.
func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", http.FileServerFS(s.static))
	mux.HandleFunc("GET /update", s.GetUpdate)
	mux.HandleFunc("GET /chart-data", s.GetChartData)
	mux.HandleFunc("GET /log.csv", s.GetLogCsv)
	mux.HandleFunc("GET /health", s.GetHealth)
	if s.live != nil {
		mux.Handle("GET /ws", s.live)
	}
	return LoggingMiddleware(mux)
}

// GetUpdate runs a poll cycle on demand.
func (s *server) GetUpdate(w http.ResponseWriter, r *http.Request) {
	if s.tokenHash != "" && !hasher.TokenMatches(r.URL.Query().Get("token"), s.tokenHash) {
		s.logger.Warn("rejected manual update", zap.String("remote", r.RemoteAddr))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	reading, err := s.poller.RunOnce(r.Context())
	if err != nil {
		handleError(w, s.logger, err)
		return
	}
	payload, err := json.Marshal(reading)
	if err != nil {
		handleError(w, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Added entry: " + string(payload)))
}

func (s *server) GetChartData(w http.ResponseWriter, r *http.Request) {
	readings, err := s.readings.RecentReadings(r.Context(), parseLimit(r))
	if err != nil {
		handleError(w, s.logger, err)
		return
	}
	if readings == nil {
		readings = model.Readings{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(readings); err != nil {
		s.logger.Error("failed to write chart data", zap.Error(err))
	}
}

// GetLogCsv renders readings newest first with local timestamps. Absent
// temperatures are left blank.
func (s *server) GetLogCsv(w http.ResponseWriter, r *http.Request) {
	readings, err := s.readings.RecentReadings(r.Context(), parseLimit(r))
	if err != nil {
		handleError(w, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "timestamp, air, pool, spa, heater\n")
	for _, reading := range readings {
		fmt.Fprintf(w, "%s, %s, %s, %s, %d\n",
			reading.Timestamp.In(s.location).Format(csvTimestamp),
			cell(reading.AirTemp),
			cell(reading.PoolTemp),
			cell(reading.SpaTemp),
			reading.HeaterSetpoint,
		)
	}
}

func (s *server) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.readings.Ping(ctx); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// staticFS roots files at static/ and requires an index page.
func staticFS(files fs.FS) (fs.FS, error) {
	static, err := fs.Sub(files, "static")
	if err != nil {
		return nil, fmt.Errorf("static files: %w", err)
	}
	if _, err := fs.Stat(static, "index.html"); err != nil {
		return nil, fmt.Errorf("static files: %w", err)
	}
	return static, nil
}

func cell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// parseLimit falls back to the store default for a missing or bad limit.
func parseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 0
	}
	return limit
}

func handleError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Error("request failed", zap.Error(err))
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(serverError))
}
