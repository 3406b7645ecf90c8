package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tender-cli/internal/model"
	"github.com/sells-group/tender-cli/internal/pipeline"
	"github.com/sells-group/tender-cli/internal/report"
	"github.com/sells-group/tender-cli/internal/rubric"
	"github.com/sells-group/tender-cli/internal/store"
)

var servePort int

// maxMemoryMultipart is how much of an upload is buffered in memory before
// spilling to temp files.
const maxMemoryMultipart = 32 << 20

// executor runs an evaluation for a run that already exists in the store.
type executor interface {
	Execute(ctx context.Context, runID string, inputs []pipeline.ArchiveInput, referenceDate time.Time) (*model.Evaluation, error)
}

// server serves evaluation uploads, results and reports over HTTP.
type server struct {
	ctx       context.Context
	store     store.Store
	exec      executor
	rubric    rubric.Rubric
	report    report.Options
	origins   []string
	maxUpload int64
	now       func() time.Time

	wg sync.WaitGroup
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/evaluations", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/phases", s.handlePhases)
		r.Get("/{id}/report", s.handleReport)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreate accepts a multipart upload with one or more "archives" files,
// records a run and evaluates it in the background.
func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	if err := r.ParseMultipartForm(maxMemoryMultipart); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	files := r.MultipartForm.File["archives"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "at least one archives file is required")
		return
	}

	refDate, err := parseReferenceDate(r.FormValue("reference_date"), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "reference_date must be YYYY-MM-DD")
		return
	}

	inputs := make([]pipeline.ArchiveInput, 0, len(files))
	names := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable upload")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable upload")
			return
		}
		in := pipeline.ArchiveInput{Name: fh.Filename, Data: data}
		inputs = append(inputs, in)
		names = append(names, in.DisplayName())
	}

	run, err := s.store.CreateRun(r.Context(), names)
	if err != nil {
		zap.L().Error("serve: create run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create run")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.exec.Execute(s.ctx, run.ID, inputs, refDate); err != nil {
			zap.L().Error("serve: evaluation failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": run.ID,
		"status": string(run.Status),
	})
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{Status: model.RunStatus(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("serve: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	// Listings omit full results.
	for i := range runs {
		runs[i].Result = nil
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *server) handlePhases(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	phases, err := s.store.ListPhases(r.Context(), run.ID)
	if err != nil {
		zap.L().Error("serve: list phases failed", zap.String("run_id", run.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list phases")
		return
	}
	writeJSON(w, http.StatusOK, phases)
}

// handleReport renders a completed run as html (default), md or xlsx.
func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if run.Status != model.RunStatusComplete || run.Result == nil {
		writeError(w, http.StatusConflict, fmt.Sprintf("run is %s", run.Status))
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "html":
		page, err := report.HTML("Tender Evaluation Report", report.Markdown(run.Result, s.rubric, s.report))
		if err != nil {
			zap.L().Error("serve: render html failed", zap.String("run_id", run.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not render report")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, page)
	case "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, report.Markdown(run.Result, s.rubric, s.report))
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "evaluation-"+truncateID(run.ID)+".xlsx"))
		if err := report.EncodeXLSX(w, run.Result, s.rubric, s.report); err != nil {
			zap.L().Error("serve: render xlsx failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be html, md or xlsx")
	}
}

func (s *server) lookupRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return nil, false
		}
		zap.L().Error("serve: get run failed", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load run")
		return nil, false
	}
	return run, true
}

// wait blocks until background evaluations finish.
func (s *server) wait() { s.wg.Wait() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for evaluation uploads and reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer env.Close()

		if n, err := env.Store.DeleteExpiredAnalyses(ctx); err != nil {
			zap.L().Warn("serve: prune analysis cache failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("serve: pruned analysis cache", zap.Int("deleted", n))
		}

		s := &server{
			ctx:       ctx,
			store:     env.Store,
			exec:      env.Pipeline,
			rubric:    env.Rubric,
			report:    env.Report,
			origins:   cfg.Server.AllowedOrigins,
			maxUpload: cfg.Server.MaxUploadMB << 20,
			now:       time.Now,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           s.routes(),
			ReadHeaderTimeout: 30 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		s.wait()
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
