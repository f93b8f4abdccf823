package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"meadow/internal/config"
	"meadow/internal/logging"
	"meadow/internal/server"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./meadow.yaml）")
	addr := flag.String("addr", "", "监听地址")
	proto := flag.String("proto", "", "传输协议 tcp/kcp/ws")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *addr != "" {
		cfg.ServerAddr = *addr
	}
	if *proto != "" {
		cfg.Proto = *proto
	}

	logger := logging.New(cfg.LogFile)
	defer logger.Sync()

	gameServer := server.NewGameServer(cfg.ServerAddr, cfg.Proto, logger)

	go func() {
		if err := gameServer.Start(); err != nil {
			logger.Fatalw("服务器启动失败", "err", err)
		}
	}()

	log.Printf("Meadow 服务器监听 %s (%s)，Ctrl+C 停止", cfg.ServerAddr, cfg.Proto)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("正在关闭服务器...")
	gameServer.Shutdown()
}
