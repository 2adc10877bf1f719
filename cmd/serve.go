package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chuuk-lexicon/lexicon-cli/internal/ingest"
	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
	"github.com/chuuk-lexicon/lexicon-cli/internal/search"
	"github.com/chuuk-lexicon/lexicon-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dictionary HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		vocab, err := buildVocab()
		if err != nil {
			return err
		}
		ing := buildIngester(st, vocab)
		searcher := search.NewSearcher(st, cfg.Search.DefaultLimit)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/search", handleSearch(searcher))
		r.Post("/api/pages", handleExtractPage(ing))
		r.Post("/api/pages/{id}/reprocess", handleReprocess(ing))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func handleSearch(searcher *search.Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			writeError(w, http.StatusBadRequest, "q is required")
			return
		}
		dir, err := parseDirection(r.URL.Query().Get("direction"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
		}

		results, err := searcher.Search(r.Context(), q, dir, limit)
		if err != nil {
			zap.L().Error("search failed", zap.String("query", q), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"query":   q,
			"count":   len(results),
			"results": results,
		})
	}
}

func handleExtractPage(ing *ingest.Ingester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PageID     string `json:"page_id"`
			Filename   string `json:"filename"`
			PageNumber int    `json:"page_number"`
			Text       string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Text == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}

		meta := model.PageMeta{
			PageID:     req.PageID,
			Filename:   req.Filename,
			PageNumber: req.PageNumber,
		}
		extracted, err := ing.ExtractPage(r.Context(), req.Text, meta)
		if err != nil {
			zap.L().Error("page extraction failed",
				zap.String("page_id", meta.PageID),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "extraction failed")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"page_id":   meta.PageID,
			"extracted": extracted,
		})
	}
}

func handleReprocess(ing *ingest.Ingester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "id")
		stats, err := ing.Reprocess(r.Context(), pageID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		if err != nil {
			zap.L().Error("reprocess failed", zap.String("page_id", pageID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "reprocess failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"page_id":   pageID,
			"new":       stats.NewEntries,
			"updated":   stats.UpdatedEntries,
			"unchanged": stats.UnchangedEntries,
			"failed":    stats.Failed,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
