package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/rpncalc/pkg/api"
	grpcapi "github.com/lemonberrylabs/rpncalc/pkg/api/grpc"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
	"github.com/lemonberrylabs/rpncalc/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST, web UI and gRPC servers",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().String("suites-dir", "", "Directory of suite YAML/JSON files to run at startup (env SUITES_DIR)")
	cmd.Flags().Int("history-limit", 0, "Maximum calculations kept in history (default 1000, env HISTORY_LIMIT)")
	cmd.Flags().Bool("access-log", false, "Log every HTTP request")
	return cmd
}

func serve(cmd *cobra.Command, args []string) error {
	port := envOrDefault("PORT", "8787")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}

	grpcPort := envOrDefault("GRPC_PORT", "8788")
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		grpcPort = fmt.Sprintf("%d", v)
	}

	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}

	suitesDir := os.Getenv("SUITES_DIR")
	if v, _ := cmd.Flags().GetString("suites-dir"); v != "" {
		suitesDir = v
	}

	limit, err := strconv.Atoi(envOrDefault("HISTORY_LIMIT", strconv.Itoa(store.DefaultHistoryLimit)))
	if err != nil {
		return fmt.Errorf("invalid HISTORY_LIMIT: %w", err)
	}
	if v, _ := cmd.Flags().GetInt("history-limit"); v != 0 {
		limit = v
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	grpcAddr := fmt.Sprintf("%s:%s", host, grpcPort)

	s := store.NewWithLimit(limit)
	var opts []api.Option
	if v, _ := cmd.Flags().GetBool("access-log"); v {
		opts = append(opts, api.WithRequestLog(os.Stderr))
	}
	server := api.New(s, opts...)

	if suitesDir != "" {
		log.Printf("Running suites from %s", suitesDir)
		if err := server.LoadSuites(suitesDir); err != nil {
			log.Printf("Warning: failed to load suites: %v", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		ui := web.New(s)
		ui.Register(server.App())
	}()

	grpcServer := grpcapi.New(s)
	go func() {
		log.Printf("gRPC server listening on %s", grpcAddr)
		if err := grpcServer.Serve(grpcAddr); err != nil {
			log.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down calculator...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("rpncalc %s listening on %s (history limit %d)", version, addr, limit)
	return server.Listen(addr)
}
