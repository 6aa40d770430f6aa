package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/uav-gcs/internal/api"
	"github.com/taoyao-code/uav-gcs/internal/command"
	cfgpkg "github.com/taoyao-code/uav-gcs/internal/config"
	"github.com/taoyao-code/uav-gcs/internal/httpserver"
	"github.com/taoyao-code/uav-gcs/internal/link"
	"github.com/taoyao-code/uav-gcs/internal/logging"
	"github.com/taoyao-code/uav-gcs/internal/metrics"
	"github.com/taoyao-code/uav-gcs/internal/transport"
)

func main() {
	// 1) 加载配置
	cfg, err := cfgpkg.Load("")
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	// 3) 指标注册与处理器
	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)
	metricsHandler := metrics.Handler(reg)

	// 4) 飞行器链路
	ch, err := transport.New(cfg.Link.Transport, cfg.Link.LocalAddr, cfg.Link.Addr, cfg.Link.DialTimeout, log)
	if err != nil {
		log.Fatal("transport init error", zap.Error(err))
	}
	switch tc := ch.(type) {
	case *transport.TCPChannel:
		tc.SetOnReconnect(func() { appm.ReconnectTotal.Inc() })
	case *transport.UDPChannel:
		tc.SetOnReconnect(func() { appm.ReconnectTotal.Inc() })
	}

	sess := link.NewSession(cfg.Link, ch, appm, log)
	limiter := command.NewRateLimiter(cfg.Command.RatePerSec, cfg.Command.Burst)
	cmdClient := command.NewClient(sess, sess.State(), sess.Acks(), limiter, appm, log)

	// 5) HTTP 服务（状态查询 + 命令下发 + 指标）
	httpSrv := httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler,
		func() bool { return sess.State().Linked() },
		func(r *gin.Engine) { api.RegisterRoutes(r, sess, cmdClient, log) },
	)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
		}
	}()
	if err := sess.Start(); err != nil {
		log.Fatal("link start error", zap.Error(err))
	}

	// 信号处理，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	_ = sess.Close()
}
