package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aspagon17/piano-app/internal/config"
	"github.com/aspagon17/piano-app/internal/discovery"
	"github.com/aspagon17/piano-app/internal/server"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	serveCommand = kingpin.Command("serve", "Run the room server")
	playCommand  = kingpin.Command("play", "Join a room and play from the terminal")
)

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

func run() error {
	kingpin.Version("0.1.0")
	command := kingpin.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case serveCommand.FullCommand():
		return serve(ctx)
	case playCommand.FullCommand():
		p := &Program{}
		if err := p.Init(ctx); nil != err {
			return err
		}
		defer p.Close()
		return p.Run(ctx)
	}
	return nil
}

func serve(ctx context.Context) error {
	srv, err := server.New(ctx, *config.Addr, *config.Secret, *config.RedisAddr)
	if nil != err {
		return err
	}

	if *config.Announce {
		_, portStr, err := net.SplitHostPort(*config.Addr)
		if nil != err {
			return fmt.Errorf("unable to parse listen address: %w", err)
		}
		port, err := strconv.Atoi(portStr)
		if nil != err {
			return fmt.Errorf("unable to parse listen port: %w", err)
		}
		if err := discovery.Advertise(ctx, "piano-app", port); nil != err {
			return err
		}
	}

	return srv.Run(ctx)
}
