// Command freehandd serves freehand canvases over HTTP and websockets.
//
// Usage:
//
//	freehandd [-config freehand.toml] [-addr :8080] [-advertise]
//	freehandd -init freehand.toml
//	freehandd -browse
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gogpu/freehand"
	"github.com/gogpu/freehand/server"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "freehandd: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, m, initPath, err := configure(args, stderr)
	if err != nil {
		return err
	}
	level, _ := cfg.level()
	freehand.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	switch m {
	case modeInit:
		if err := createConfig(initPath, cfg); err != nil {
			return err
		}
		freehand.Logger().Info("freehand: wrote config", "path", initPath)
		return nil
	case modeBrowse:
		return server.Browse(func(addr string) {
			fmt.Fprintln(stdout, addr)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.server())
	if cfg.Advertise {
		port, err := listenPort(cfg.Addr)
		if err != nil {
			return err
		}
		responder, err := server.Advertise(cfg.Instance, port)
		if err != nil {
			return err
		}
		defer responder.Shutdown()
	}
	return srv.ListenAndServe(ctx)
}

func listenPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 {
		return 0, fmt.Errorf("addr %q: advertising needs a fixed port", addr)
	}
	return port, nil
}
