package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"tocotoco-hr/portal/config"
	"tocotoco-hr/portal/internal/api/handler"
	"tocotoco-hr/portal/internal/api/router"
	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/cache"
	"tocotoco-hr/portal/internal/repository"
	"tocotoco-hr/portal/internal/service"
	"tocotoco-hr/portal/internal/view"
	"tocotoco-hr/portal/pkg/database"
	"tocotoco-hr/portal/pkg/jwt"
	applogger "tocotoco-hr/portal/pkg/logger"
	"tocotoco-hr/portal/pkg/redis"
	"tocotoco-hr/portal/pkg/telemetry"
)

const serviceName = "tocotoco-hr-portal"

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("demo_mode", cfg.Feature.DemoMode),
	)

	// 3. 链路追踪（未配置 OTLP 时为空操作）
	shutdownTelemetry := telemetry.Setup(&cfg.Telemetry, logger)

	// 4. 会话存储：配置了数据库时用 PostgreSQL，否则用内存
	var repo *repository.Repository
	var closeDB func()
	if cfg.Database.Host != "" {
		db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
		logger.Info("数据库连接成功")
		repo = repository.NewRepository(db)
		closeDB = func() { sqlDB.Close() }
	} else {
		logger.Warn("未配置数据库，会话仅保存在内存中")
		repo = repository.NewMemoryRepository()
		closeDB = func() {}
	}

	// 5. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，缓存与速率限制降级为进程内实现", zap.Error(err))
			rdb = nil
		}
	}

	deps := service.Deps{
		Config: cfg,
		Repo:   repo,
		JWT:    jwt.NewManager(&cfg.Auth),
		Now:    time.Now,
	}
	if rdb != nil {
		deps.Cache = rdb
		deps.Blacklist = rdb
	} else {
		deps.Cache = cache.NewMemory()
	}

	// 6. 远端 HR 接口
	if cfg.Feature.DemoMode {
		logger.Warn("演示模式：使用内置演示数据", zap.String("password", apiclient.DemoPassword))
		deps.API = apiclient.NewDemo(cfg.Attendance.RadiusMeters, logger)
	} else {
		deps.API = apiclient.NewClient(&cfg.Backend, logger)
	}

	// 7. 邮件（未配置 SMTP 时禁用）
	if cfg.Mail.Enabled() {
		deps.Mailer = service.NewMailer(&cfg.Mail)
	}

	// 8. 依赖注入: Service → View → Handler
	svc := service.NewService(deps, logger)
	renderer, err := view.New(logger)
	if err != nil {
		logger.Fatal("模板解析失败", zap.Error(err))
	}
	h := handler.NewHandler(cfg, svc, renderer, logger)

	// 9. 初始化路由
	engine := router.Setup(cfg, h, svc.Auth, rdb, logger)

	// 10. 定期清理过期会话
	ctx, stop := context.WithCancel(context.Background())
	go cleanupSessions(ctx, svc.Auth, logger)

	// 11. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      otelhttp.NewHandler(engine, serviceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 12. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("链路追踪关闭异常", zap.Error(err))
	}

	closeDB()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// cleanupSessions 每小时删除过期会话
func cleanupSessions(ctx context.Context, authSvc service.AuthService, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := authSvc.CleanupExpired(ctx)
			if err != nil {
				logger.Warn("清理过期会话失败", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("已清理过期会话", zap.Int64("count", n))
			}
		}
	}
}
