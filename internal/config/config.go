package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config 客户端与服务器共用的运行配置
type Config struct {
	ServerAddr string
	Proto      string // tcp / kcp / ws
	LogFile    string
	PlayerName string
}

// Load 读取配置：默认值 < 配置文件（meadow.yaml，可选）
// path 非空时强制使用指定文件，文件不存在视为错误
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server.addr", "127.0.0.1:7777")
	v.SetDefault("server.proto", "tcp")
	v.SetDefault("log.file", "meadow.log")
	v.SetDefault("player.name", "wanderer")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		v.SetConfigName("meadow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
			// 没有配置文件时使用默认值
		}
	}

	return &Config{
		ServerAddr: v.GetString("server.addr"),
		Proto:      v.GetString("server.proto"),
		LogFile:    v.GetString("log.file"),
		PlayerName: v.GetString("player.name"),
	}, nil
}
