package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vitalguard/internal/broadcast"
	"vitalguard/internal/config"
	"vitalguard/internal/logger"
	"vitalguard/internal/service"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "vitalguard")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建监控服务
	monitor, err := service.NewMonitorService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create monitor service",
			zap.Error(err),
		)
	}

	// 4. WebSocket接入层
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", broadcast.Handler(monitor.Hub(), log))

	server := &http.Server{
		Addr:    cfg.Server.WSAddr,
		Handler: mux,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("WebSocket server listening",
			zap.String("addr", cfg.Server.WSAddr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	// 5. 启动监控周期
	monitor.Start()

	// 6. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case err := <-serverErrChan:
		log.Error("WebSocket server error",
			zap.Error(err),
		)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("WebSocket server shutdown failed", zap.Error(err))
	}

	monitor.Stop()
	log.Info("Monitor service stopped")
}
