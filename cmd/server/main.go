package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/odalmau/webmcp/internal/api"
	"github.com/odalmau/webmcp/internal/chat"
	"github.com/odalmau/webmcp/internal/chat/assistant"
	"github.com/odalmau/webmcp/internal/httpx"
	"github.com/odalmau/webmcp/internal/rpc"
	"github.com/odalmau/webmcp/internal/search"
	"github.com/odalmau/webmcp/internal/tools"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	shutdown, err := httpx.InitTelemetry(ctx, "webmcp-server")
	if err != nil {
		log.Fatalf("telemetry init error: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	searcher, err := search.NewClient()
	if err != nil {
		slog.Warn("Search disabled", "reason", err)
	}

	registry := tools.NewRegistry(searcherOrNil(searcher, err))
	router := rpc.NewRouter(registry)
	router.Start()
	defer router.Stop()

	assist := assistant.New(registry)
	driver := chat.NewDriver(assist, router)
	server := api.NewServer(router, driver, assist)

	r := mux.NewRouter()
	r.Use(
		httpx.Logger(),
		httpx.Recovery(),
	)

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "webmcp tool router is up")
	})

	apiRouter := mux.NewRouter()
	server.Routes(apiRouter)
	instrumented := otelhttp.NewHandler(
		httpx.MetricsMiddleware(apiRouter),
		"webmcp.api",
	)
	r.PathPrefix("/rpc").Handler(instrumented)
	r.PathPrefix("/chat").Handler(instrumented)

	addr := os.Getenv("WEBMCP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	slog.Info("Starting the server...", "addr", addr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

// searcherOrNil keeps the registry's SearchClient a typed nil-free value:
// a nil *search.Client inside a non-nil interface would dodge the
// registry's nil check.
func searcherOrNil(c *search.Client, err error) tools.SearchClient {
	if err != nil || c == nil {
		return nil
	}
	return c
}
