package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"net/rpc"
	"os"
	"os/signal"
	"syscall"

	chunkserverCore "github.com/relaysystems/gfscore/core/chunkserver"
	"github.com/relaysystems/gfscore/internal/config"
	"github.com/relaysystems/gfscore/internal/gfslog"
)

var log *gfslog.Logger

func main() {
	var err error
	log, err = gfslog.New("chunkserver")
	if err != nil {
		panic(err)
	}

	if err := run(); err != nil {
		log.Fatalln("startup", "ERROR", err)
	}
}

func run() error {
	configPath := flag.String("c", "", "path to TOML config file")
	addr := flag.String("a", "127.0.0.1:8000", "this chunk node's own address")
	master := flag.String("m", "", "address of a master to register with (first one reachable)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorw("startup", "error", "config load failed", "err", err)
		return err
	}

	node := chunkserverCore.New(cfg, *addr, log)

	api := NewChunkServerAPI(node)
	if err := rpc.RegisterName("ChunkServerAPI", api); err != nil {
		return err
	}
	rpc.HandleHTTP()

	l, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Errorw("startup", "error", "net listen failed", "err", err)
		return err
	}

	log.Infow("startup", "status", "chunkserver rpc server started", "address", l.Addr().String())
	defer log.Infow("shutdown", "status", "chunkserver rpc server stopped", "address", l.Addr().String())
	go http.Serve(l, nil)

	masterAddrs := cfg.MasterAddrs
	if *master != "" {
		masterAddrs = []string{*master}
	}

	registered := false
	for _, m := range masterAddrs {
		if err := node.Register(m); err != nil {
			log.Warnw("startup", "status", "register attempt failed", "master", m, "err", err)
			continue
		}
		registered = true
		break
	}

	if !registered {
		err := errors.New("failed to register with any master")
		log.Errorw("startup", "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	node.StartHeartbeat(ctx)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	log.Infow("shutdown", "status", "chunkserver rpc server stopping", "address", l.Addr().String())

	return nil
}
