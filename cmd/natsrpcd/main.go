// Command natsrpcd runs a stateless RPC server on a NATS subject, serving
// the built-in Debug service. It is mostly a wiring reference: real
// deployments embed server.Server and register their own services.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"nats-rpc/codec"
	"nats-rpc/middleware"
	"nats-rpc/processor"
	"nats-rpc/registry"
	"nats-rpc/server"
	"nats-rpc/transport"
)

// Debug is the built-in service: an echo and a oneway ping counter.
type Debug struct{}

type EchoArgs struct {
	Message string
}

type EchoReply struct {
	Message string
}

func (d *Debug) Echo(args *EchoArgs, reply *EchoReply) error {
	reply.Message = args.Message
	return nil
}

func main() {
	configPath := flag.String("config", "natsrpcd.toml", "path to TOML config")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("bad config", zap.Error(err))
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logger.Fatal("connect nats", zap.String("url", cfg.NATSURL), zap.Error(err))
	}
	defer conn.Close()

	proc := processor.NewServiceProcessor(&codec.JSONCodec{}, logger)
	proc.Use(middleware.Logging(logger))
	if cfg.RateLimit > 0 {
		proc.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateLimitBurst))
	}
	if err := proc.Register(&Debug{}); err != nil {
		logger.Fatal("register service", zap.Error(err))
	}

	var reg registry.Registry
	if len(cfg.EtcdEndpoints) > 0 {
		etcdReg, err := registry.NewEtcdRegistry(cfg.EtcdEndpoints)
		if err != nil {
			logger.Fatal("connect etcd", zap.Strings("endpoints", cfg.EtcdEndpoints), zap.Error(err))
		}
		defer etcdReg.Close()
		reg = etcdReg
	}

	srv := server.NewServer(transport.NewNATSBus(conn), cfg.Server, proc, logger)
	if err := srv.Serve(reg); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if err := srv.Stop(); err != nil {
		logger.Error("stop", zap.Error(err))
	}
}
