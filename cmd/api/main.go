package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xiebiao/bookshelf/docs"
	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/application/ingest"
	appreview "github.com/xiebiao/bookshelf/internal/application/review"
	appsearch "github.com/xiebiao/bookshelf/internal/application/search"
	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/review"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/media"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshelf/internal/infrastructure/storage"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/jwt"
	"github.com/xiebiao/bookshelf/pkg/mq"
	"github.com/xiebiao/bookshelf/pkg/response"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

// @title           Bookshelf API
// @version         1.0
// @description     图书目录服务：录入(封面/文档转换+对象存储)、查询(读穿缓存)、评论、搜索
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// main 主程序入口
// 说明：手动依赖注入（wire.go提供等价的Wire版本）
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 服务端口: %d\n", cfg.Server.Port)
	fmt.Printf("  - 运行模式: %s\n", cfg.Server.Mode)
	fmt.Printf("  - 数据库: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	fmt.Printf("  - Redis: %s\n", cfg.Redis.Addr())
	fmt.Printf("  - 对象存储: %s (%s)\n", cfg.Storage.Bucket, cfg.Storage.Region)

	// 2. 初始化数据库连接
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	// 3. 初始化Redis连接
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// 4. 初始化对象存储与文件转换器
	s3Store, err := storage.NewS3Store(cfg)
	if err != nil {
		log.Fatalf("初始化对象存储失败: %v", err)
	}
	transformer := media.NewTransformer(cfg)
	orchestrator := ingest.NewOrchestrator(transformer, s3Store)

	// 5. 初始化分布式追踪（未启用时返回no-op shutdown）
	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "bookshelf-api",
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatalf("初始化追踪失败: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("关闭追踪失败: %v", err)
		}
	}()

	// 6. 初始化事件发布者（可选组件,未启用时事件发布为no-op）
	var bookEvents appbook.EventPublisher
	var reviewEvents appreview.EventPublisher
	if cfg.MQ.Enabled {
		publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			log.Fatalf("初始化消息队列失败: %v", err)
		}
		defer publisher.Close()
		bookEvents = publisher
		reviewEvents = publisher
		fmt.Printf("  - 事件交换机: %s\n", cfg.MQ.Exchange)
	}

	// 7. 依赖注入（手动组装）
	// Repository ← Service ← UseCase ← Handler

	// 基础设施层
	userRepo := mysql.NewUserRepository(db)
	bookRepo := mysql.NewBookRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)
	sessionStore := redis.NewSessionStore(redisClient)
	cacheStore := redis.NewCacheStore(redisClient)
	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)

	// 领域层
	userService := user.NewService(userRepo)
	bookService := book.NewService(bookRepo)
	reviewService := review.NewService(reviewRepo)

	// 应用层
	cacheTTL := cfg.Cache.DefaultTTL
	presignTTL := cfg.Storage.PresignExpire

	registerUseCase := appuser.NewRegisterUseCase(userService, orchestrator, s3Store, presignTTL)
	loginUseCase := appuser.NewLoginUseCase(userService, jwtManager, sessionStore)
	logoutUseCase := appuser.NewLogoutUseCase(sessionStore)
	refreshTokenUseCase := appuser.NewRefreshTokenUseCase(jwtManager)

	publishBookUseCase := appbook.NewPublishBookUseCase(bookService, orchestrator, cacheStore, s3Store, bookEvents, presignTTL)
	listBooksUseCase := appbook.NewListBooksUseCase(bookService, cacheStore, s3Store, cacheTTL, presignTTL)
	getBookUseCase := appbook.NewGetBookUseCase(bookService, reviewService, s3Store, presignTTL)
	updateBookUseCase := appbook.NewUpdateBookUseCase(bookService, cacheStore, s3Store, bookEvents, presignTTL)
	deleteBookUseCase := appbook.NewDeleteBookUseCase(bookService, s3Store, cacheStore, bookEvents)

	createReviewUseCase := appreview.NewCreateReviewUseCase(reviewService, bookService, cacheStore, reviewEvents)
	updateReviewUseCase := appreview.NewUpdateReviewUseCase(reviewService, cacheStore, reviewEvents)
	deleteReviewUseCase := appreview.NewDeleteReviewUseCase(reviewService, cacheStore, reviewEvents)
	listReviewsUseCase := appreview.NewListReviewsUseCase(reviewService, cacheStore, cacheTTL)

	searchBooksUseCase := appsearch.NewSearchBooksUseCase(bookService, cacheStore, s3Store, cacheTTL, presignTTL)

	// 接口层
	userHandler := handler.NewUserHandler(registerUseCase, loginUseCase, logoutUseCase, refreshTokenUseCase, cfg.Server.UploadDir)
	bookHandler := handler.NewBookHandler(publishBookUseCase, listBooksUseCase, getBookUseCase, updateBookUseCase, deleteBookUseCase, cfg.Server.UploadDir)
	reviewHandler := handler.NewReviewHandler(createReviewUseCase, updateReviewUseCase, deleteReviewUseCase, listReviewsUseCase)
	searchHandler := handler.NewSearchHandler(searchBooksUseCase)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	// 8. 初始化Gin引擎
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(middleware.Metrics(), middleware.Tracing())

	// 9. 注册路由
	registerRoutes(r, userHandler, bookHandler, reviewHandler, searchHandler, authMiddleware)

	// 10. 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("\n🚀 服务启动成功！\n")
	fmt.Printf("   访问地址: http://localhost%s\n", addr)
	fmt.Printf("   健康检查: http://localhost%s/ping\n", addr)
	fmt.Printf("   API文档:  http://localhost%s/swagger/index.html\n", addr)
	fmt.Printf("   指标采集: http://localhost%s/metrics\n", addr)
	fmt.Printf("\n按Ctrl+C停止服务\n\n")

	if err := r.Run(addr); err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
}

// registerRoutes 注册路由
func registerRoutes(
	r *gin.Engine,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	reviewHandler *handler.ReviewHandler,
	searchHandler *handler.SearchHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API路由组
	v1 := r.Group("/api/v1")
	{
		// 用户模块
		users := v1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/logout", authMiddleware.RequireAuth(), userHandler.Logout)
			users.PATCH("/refresh-token", authMiddleware.RequireAuth(), userHandler.RefreshToken)
		}

		// 图书模块
		books := v1.Group("/books")
		{
			// 公开接口
			books.GET("", bookHandler.ListBooks)
			books.GET("/search", searchHandler.SearchBooks)
			books.GET("/:id", bookHandler.GetBook)
			books.GET("/:id/reviews", reviewHandler.ListReviews)

			// 需要登录
			books.POST("", authMiddleware.RequireAuth(), bookHandler.PublishBook)
			books.PUT("/:id", authMiddleware.RequireAuth(), bookHandler.UpdateBook)
			books.DELETE("/:id", authMiddleware.RequireAuth(), bookHandler.DeleteBook)
			books.POST("/:id/reviews", authMiddleware.RequireAuth(), reviewHandler.CreateReview)
		}

		// 评论模块（按评论ID操作,需要登录）
		reviews := v1.Group("/reviews")
		reviews.Use(authMiddleware.RequireAuth())
		{
			reviews.PUT("/:id", reviewHandler.UpdateReview)
			reviews.DELETE("/:id", reviewHandler.DeleteReview)
		}
	}
}
