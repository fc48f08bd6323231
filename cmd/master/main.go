package main

import (
	"flag"
	"net"
	"net/http"
	"net/rpc"
	"os"
	"os/signal"
	"syscall"

	masterCore "github.com/relaysystems/gfscore/core/master"
	"github.com/relaysystems/gfscore/internal/config"
	"github.com/relaysystems/gfscore/internal/gfslog"
)

var log *gfslog.Logger

func main() {
	var err error
	log, err = gfslog.New("master")
	if err != nil {
		panic(err)
	}

	if err := run(); err != nil {
		log.Fatalln("startup", "ERROR", err)
	}
}

func run() error {
	configPath := flag.String("c", "", "path to TOML config file")
	addr := flag.String("a", "127.0.0.1:7000", "this master's own address, must appear in master_addrs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorw("startup", "error", "config load failed", "err", err)
		return err
	}

	master := masterCore.New(cfg, *addr, log)

	if cfg.UseAuthentication {
		if err := master.LoadAuthTable(cfg.AuthenticationFilePath); err != nil {
			log.Errorw("startup", "error", "failed to load auth table", "err", err)
			return err
		}
	}

	masterAPI := NewMasterAPI(master)
	if err := rpc.RegisterName("MasterAPI", masterAPI); err != nil {
		return err
	}
	rpc.HandleHTTP()

	l, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Errorw("startup", "error", "net listen failed", "err", err)
		return err
	}

	log.Infow("startup", "status", "master rpc server started", "address", l.Addr().String())
	defer log.Infow("shutdown", "status", "master rpc server stopped", "address", l.Addr().String())
	go http.Serve(l, nil)

	master.Start()
	master.StartCron()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	log.Infow("shutdown", "status", "master rpc server stopping", "address", l.Addr().String())

	return nil
}
