package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/coffersTech/logbridge/internal/config"
	"github.com/coffersTech/logbridge/internal/hbase"
	"github.com/coffersTech/logbridge/internal/pool"
	"github.com/coffersTech/logbridge/internal/server"
)

func main() {
	// A .env file is optional; real env vars win inside Load.
	_ = godotenv.Load(".env")

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 1. Connection pool to the wide-column store. Connections are
	// dialed lazily, so the backend does not have to be up yet.
	pl := pool.New(func(ctx context.Context) (hbase.Conn, error) {
		return hbase.Dial(cfg.HBaseAddr, hbase.DialConfig{
			ConnectTimeout: cfg.AcquireTimeout,
			SocketTimeout:  cfg.WriteTimeout,
		})
	}, cfg.PoolSize, cfg.AcquireTimeout)
	log.Printf("Pool initialized. Backend: %s, max connections: %d", cfg.HBaseAddr, cfg.PoolSize)

	// 2. Ingest server.
	srv := server.NewIngestServer(cfg, pl)
	srv.StartStatsTicker(1 * time.Second)

	ln, err := srv.Listen()
	if err != nil {
		log.Fatalf("Failed to bind %s: %v", cfg.ListenAddr, err)
	}

	// 3. Serve in a goroutine so main can wait for signals.
	go func() {
		log.Printf("Listening on %s, route %s, writing to table %q family %q",
			cfg.ListenAddr, cfg.ListenRoute, cfg.TableName, cfg.ColumnFamily)
		if err := srv.Serve(ln); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// 4. Graceful shutdown hook.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal: %v. Shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	pl.Close()
	log.Println("Shutdown complete")
}
