package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/holdcart/internal/app"
	"github.com/holdcart/internal/config"
	"github.com/holdcart/internal/logger"
	"github.com/holdcart/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiGreen = "\033[32m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
)

func main() {
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	printStartupBanner()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if isWeakSecret(cfg.UserJWT.SecretKey) {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("用户 JWT secret 过弱或仍为默认值，请配置强随机密钥")
		}
		stdLog.Printf("警告: 用户 JWT secret 过弱或仍为默认值，生产环境请务必更换")
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, dbPoolConfig(cfg.Database.Pool)); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func dbPoolConfig(pool config.DatabasePoolConfig) models.DBPoolConfig {
	return models.DBPoolConfig{
		MaxOpenConns:           pool.MaxOpenConns,
		MaxIdleConns:           pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: pool.ConnMaxIdleTimeSeconds,
	}
}

func printStartupBanner() {
	fmt.Println(ansiCyan + "██╗  ██╗ ██████╗ ██╗     ██████╗  ██████╗ █████╗ ██████╗ ████████╗" + ansiReset)
	fmt.Println(ansiCyan + "██║  ██║██╔═══██╗██║     ██╔══██╗██╔════╝██╔══██╗██╔══██╗╚══██╔══╝" + ansiReset)
	fmt.Println(ansiCyan + "███████║██║   ██║██║     ██║  ██║██║     ███████║██████╔╝   ██║   " + ansiReset)
	fmt.Println(ansiCyan + "██╔══██║██║   ██║██║     ██║  ██║██║     ██╔══██║██╔══██╗   ██║   " + ansiReset)
	fmt.Println(ansiCyan + "██║  ██║╚██████╔╝███████╗██████╔╝╚██████╗██║  ██║██║  ██║   ██║   " + ansiReset)
	fmt.Println(ansiCyan + "╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═════╝  ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   " + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "HoldCart API · 购物车库存协调服务" + ansiReset)
	fmt.Println(ansiBlue + "• Repo: https://github.com/holdcart" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

var weakSecretMarkers = []string{"change-me", "change-in-production", "your-secret-key"}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	lowered := strings.ToLower(secret)
	for _, marker := range weakSecretMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
