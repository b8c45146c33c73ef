package cmd

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/logger"
	"github.com/spigell/jobsheet/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as an HTTP service triggered by POST /run",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "address to listen on")
}

func serve(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	p, err := buildPipeline(ctx, config, false, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	addr := cmd.Flag("listen").Value.String()
	srv := &http.Server{
		Addr:              addr,
		Handler:           newHandler(p, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("listening", zap.String("addr", addr), zap.String("version", version))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// newHandler exposes the pipeline over HTTP. Runs are serialized: concurrent
// triggers would race on the append offset of the sheet.
func newHandler(p *pipeline.Pipeline, logger *zap.Logger) http.Handler {
	var mu sync.Mutex

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
			return
		}

		logger.Info("run triggered", zap.String("remote", r.RemoteAddr))

		mu.Lock()
		summary := p.Run(r.Context())
		mu.Unlock()

		status := http.StatusOK
		if !summary.Success {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, summary)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
