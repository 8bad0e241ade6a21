package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tremor-rs/tremor"
	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/pipeline"
)

var (
	serverArtefacts []string
	serverStorage   string
	serverPIDFile   string
	serverAPIHost   string
)

var serverCmd = &cobra.Command{Use: "server", Short: "long-running tremor host"}

var serverRunCmd = &cobra.Command{
	Use:   "run",
	Short: "start the long-running host, loading pipeline artefacts",
	RunE:  runServerRun,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.AddCommand(serverRunCmd)
	serverRunCmd.Flags().StringArrayVarP(&serverArtefacts, "artefact", "f", nil, "artefact file or directory (repeatable)")
	serverRunCmd.Flags().StringVarP(&serverStorage, "storage", "d", "", "artefact storage directory, scanned for .trickle/.tremor files")
	serverRunCmd.Flags().StringVarP(&serverPIDFile, "pid-file", "p", "", "write the running process's PID to this file")
	serverRunCmd.Flags().StringVar(&serverAPIHost, "api-host", "127.0.0.1:9898", "host:port the status/health API listens on")
}

// host holds every pipeline this server instance loaded, keyed by source
// file path — the "artefact registry" spec §6 names as external/
// collaborator-owned; this server only loads and runs what it's pointed
// at, and exposes read-only status over HTTP. CRUD against a real
// registry (YAML-mapped-by-id, as spec §6 describes) is out of this
// binary's scope.
type host struct {
	pipelines map[string]*pipeline.Pipeline
}

// runServerRun implements `server run -f ARTEFACT ... -d STORAGE
// -p PIDFILE --api-host HOST:PORT --recursion-limit N` (spec §6): it loads
// every named or discovered artefact as a running Pipeline, writes the PID
// file, and serves a minimal status API until interrupted.
func runServerRun(cmd *cobra.Command, args []string) error {
	logger := newLogger(logFormat, logLevel)

	paths, err := collectArtefacts(serverArtefacts, serverStorage)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no artefacts: pass -f or -d")
	}

	h := &host{pipelines: map[string]*pipeline.Pipeline{}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendOpts, closeBackends := backendOptions(ctx)
	defer closeBackends()
	evalOpts := append([]eval.EvalOption{eval.WithMaxRecursionDepth(recursionLimit), eval.WithLogger(logger)}, backendOpts...)

	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading artefact %s: %w", p, err)
		}
		if !strings.HasSuffix(p, ".trickle") {
			logger.Warn("skipping non-query artefact (server hosts trickle pipelines)", "path", p)
			continue
		}
		ev := tremor.NewEvaluator(evalOpts...)
		pipe, err := tremor.NewPipeline(p, string(src), p, ev, pipeline.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("compiling artefact %s: %w", p, err)
		}
		h.pipelines[p] = pipe
		go pipe.Run(ctx)
		logger.Info("pipeline started", "artefact", p, "instance", pipe.ID)
	}

	if serverPIDFile != "" {
		if err := os.WriteFile(serverPIDFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
			return fmt.Errorf("writing pid file: %w", err)
		}
		defer os.Remove(serverPIDFile)
	}

	srv := &http.Server{Addr: serverAPIHost, Handler: h.mux()}
	go func() {
		logger.Info("api listening", "addr", serverAPIHost)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	cancel()
	return srv.Shutdown(context.Background())
}

func collectArtefacts(explicit []string, storageDir string) ([]string, error) {
	var out []string
	out = append(out, explicit...)
	if storageDir != "" {
		entries, err := os.ReadDir(storageDir)
		if err != nil {
			return nil, fmt.Errorf("reading storage dir %s: %w", storageDir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.HasSuffix(e.Name(), ".trickle") || strings.HasSuffix(e.Name(), ".tremor") {
				out = append(out, filepath.Join(storageDir, e.Name()))
			}
		}
	}
	return out, nil
}

func (h *host) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/pipelines", func(w http.ResponseWriter, r *http.Request) {
		names := make([]string, 0, len(h.pipelines))
		for name := range h.pipelines {
			names = append(names, name)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(names)
	})
	return mux
}
