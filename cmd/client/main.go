package main

import (
	"flag"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"meadow/internal/client"
	"meadow/internal/config"
	"meadow/internal/logging"
	"meadow/pkg/core"
)

func main() {
	// 命令行参数覆盖配置文件
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./meadow.yaml）")
	addr := flag.String("addr", "", "服务器地址")
	proto := flag.String("proto", "", "传输协议 tcp/kcp/ws")
	name := flag.String("name", "", "玩家名称")
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
	if *name != "" {
		cfg.PlayerName = *name
	}

	logger := logging.New(cfg.LogFile)
	defer logger.Sync()

	network := client.NewNetworkClient(cfg.ServerAddr, cfg.Proto, cfg.PlayerName, logger)
	if err := network.Connect(); err != nil {
		log.Fatalf("连接失败: %v", err)
	}
	defer network.Close()

	diag := client.NewDiagnostics(logger, time.Now())
	avatar := client.NewAvatar(client.NewKeyboardInput(), network, diag, logger)
	game := client.NewGame(avatar, network, diag)

	ebiten.SetWindowSize(client.ScreenWidth, client.ScreenHeight)
	ebiten.SetWindowTitle("Meadow [" + cfg.PlayerName + "]")
	ebiten.SetTPS(core.FPS)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
