// Command stocktracker-demo serves the demo backend: the full API surface
// over a 20-stock in-memory dataset. Log in with demo@stocktracker.local /
// demo123, or register a new account.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"stocktracker/internal/demoserver"
	"stocktracker/internal/util"
)

func main() {
	addr := flag.String("addr", "localhost:8800", "listen address")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := util.NewLogger(*logLevel, "text")

	srv := demoserver.NewServer(logger)
	logger.Info("demo server listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, srv.Handler()); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
