package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

type serverMode string

const (
	modeHTTP  serverMode = "http"
	modeEcho  serverMode = "echo"
	modeStall serverMode = "stall"
	modeClose serverMode = "close"
)

func main() {
	mode := flag.String("mode", string(modeHTTP), "Server mode: http, echo, stall, close")
	port := flag.Int("port", 8080, "Listening port")
	delay := flag.Duration("delay", 0, "Delay before replying (http and echo modes)")
	flag.Parse()

	if *port <= 0 {
		log.Fatalf("port must be > 0")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := fmt.Sprintf(":%d", *port)
	var err error
	switch serverMode(*mode) {
	case modeHTTP:
		err = runHTTPServer(ctx, addr, *delay)
	case modeEcho, modeStall, modeClose:
		err = runRawServer(ctx, addr, serverMode(*mode), *delay)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		log.Fatal(err)
	}
}

func runHTTPServer(ctx context.Context, addr string, delay time.Duration) error {
	var served atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		n := served.Add(1)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "hello from probe target (request %d, host %s)\n", n, r.Host)
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("probe target HTTP server listening on %s", addr)
	return srv.ListenAndServe()
}

// runRawServer serves plain TCP connections. echo writes back whatever the
// first read returned, stall holds the connection open without replying, and
// close drops the connection right after accepting it.
func runRawServer(ctx context.Context, addr string, mode serverMode, delay time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	log.Printf("probe target %s server listening on %s", mode, addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go handleRaw(ctx, conn, mode, delay)
	}
}

func handleRaw(ctx context.Context, conn net.Conn, mode serverMode, delay time.Duration) {
	defer conn.Close()
	switch mode {
	case modeClose:
		return
	case modeStall:
		// Drain the request so the client blocks on its read, not its write.
		go func() { _, _ = io.Copy(io.Discard, conn) }()
		<-ctx.Done()
	case modeEcho:
		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		_, _ = conn.Write(buf[:n])
	}
}
