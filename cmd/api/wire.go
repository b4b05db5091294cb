//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 运行 `wire gen ./cmd/api` 生成wire_gen.go
// 说明：
// 1. cache.Store等端口通过wire.Bind绑定到具体实现
// 2. 需要从Config提取标量参数（TTL、暂存目录）的用例用自定义Provider组装
// 3. 事件发布者是可选组件,Wire版本不接MQ(手动DI的main.go支持)

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/application/cache"
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
)

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	config.Load,
	mysql.NewDB,
	redis.NewClient,
	storage.NewS3Store,
	media.NewTransformer,
	wire.Bind(new(ingest.Transformer), new(*media.Transformer)),
	wire.Bind(new(ingest.ObjectStore), new(*storage.S3Store)),
	wire.Bind(new(appbook.URLResolver), new(*storage.S3Store)),
	wire.Bind(new(appbook.ObjectDeleter), new(*storage.S3Store)),
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewReviewRepository,
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	user.NewService,
	book.NewService,
	review.NewService,
)

// applicationSet 应用层依赖
// TTL等标量参数来自Config,统一走自定义Provider
var applicationSet = wire.NewSet(
	provideRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewRefreshTokenUseCase,
	ingest.NewOrchestrator,
	wire.Bind(new(appbook.Ingestor), new(*ingest.Orchestrator)),
	wire.Bind(new(appuser.Ingestor), new(*ingest.Orchestrator)),
	wire.Bind(new(appuser.URLResolver), new(*storage.S3Store)),
	providePublishBookUseCase,
	provideListBooksUseCase,
	provideGetBookUseCase,
	provideUpdateBookUseCase,
	provideDeleteBookUseCase,
	provideCreateReviewUseCase,
	provideUpdateReviewUseCase,
	provideDeleteReviewUseCase,
	provideListReviewsUseCase,
	provideSearchBooksUseCase,
)

// middlewareSet 中间件依赖
var middlewareSet = wire.NewSet(
	provideJWTManager,
	provideSessionStore,
	provideCacheStore,
	wire.Bind(new(cache.Store), new(*redis.CacheStore)),
	middleware.NewAuthMiddleware,
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	provideUserHandler,
	provideBookHandler,
	handler.NewReviewHandler,
	handler.NewSearchHandler,
)

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideSessionStore 从Redis客户端创建Session存储
func provideSessionStore(client *goredis.Client) *redis.SessionStore {
	return redis.NewSessionStore(client)
}

// provideCacheStore 从Redis客户端创建查询缓存（含熔断降级）
func provideCacheStore(client *goredis.Client) *redis.CacheStore {
	return redis.NewCacheStore(client)
}

func provideRegisterUseCase(
	cfg *config.Config,
	userService user.Service,
	ingestor appuser.Ingestor,
	resolver appuser.URLResolver,
) *appuser.RegisterUseCase {
	return appuser.NewRegisterUseCase(userService, ingestor, resolver, cfg.Storage.PresignExpire)
}

func providePublishBookUseCase(
	cfg *config.Config,
	bookService book.Service,
	ingestor appbook.Ingestor,
	cacheStore cache.Store,
	resolver appbook.URLResolver,
) *appbook.PublishBookUseCase {
	return appbook.NewPublishBookUseCase(bookService, ingestor, cacheStore, resolver, nil, cfg.Storage.PresignExpire)
}

func provideListBooksUseCase(
	cfg *config.Config,
	bookService book.Service,
	cacheStore cache.Store,
	resolver appbook.URLResolver,
) *appbook.ListBooksUseCase {
	return appbook.NewListBooksUseCase(bookService, cacheStore, resolver, cfg.Cache.DefaultTTL, cfg.Storage.PresignExpire)
}

func provideGetBookUseCase(
	cfg *config.Config,
	bookService book.Service,
	reviewService review.Service,
	resolver appbook.URLResolver,
) *appbook.GetBookUseCase {
	return appbook.NewGetBookUseCase(bookService, reviewService, resolver, cfg.Storage.PresignExpire)
}

func provideUpdateBookUseCase(
	cfg *config.Config,
	bookService book.Service,
	cacheStore cache.Store,
	resolver appbook.URLResolver,
) *appbook.UpdateBookUseCase {
	return appbook.NewUpdateBookUseCase(bookService, cacheStore, resolver, nil, cfg.Storage.PresignExpire)
}

func provideDeleteBookUseCase(
	bookService book.Service,
	deleter appbook.ObjectDeleter,
	cacheStore cache.Store,
) *appbook.DeleteBookUseCase {
	return appbook.NewDeleteBookUseCase(bookService, deleter, cacheStore, nil)
}

func provideCreateReviewUseCase(
	reviewService review.Service,
	bookService book.Service,
	cacheStore cache.Store,
) *appreview.CreateReviewUseCase {
	return appreview.NewCreateReviewUseCase(reviewService, bookService, cacheStore, nil)
}

func provideUpdateReviewUseCase(
	reviewService review.Service,
	cacheStore cache.Store,
) *appreview.UpdateReviewUseCase {
	return appreview.NewUpdateReviewUseCase(reviewService, cacheStore, nil)
}

func provideDeleteReviewUseCase(
	reviewService review.Service,
	cacheStore cache.Store,
) *appreview.DeleteReviewUseCase {
	return appreview.NewDeleteReviewUseCase(reviewService, cacheStore, nil)
}

func provideListReviewsUseCase(
	cfg *config.Config,
	reviewService review.Service,
	cacheStore cache.Store,
) *appreview.ListReviewsUseCase {
	return appreview.NewListReviewsUseCase(reviewService, cacheStore, cfg.Cache.DefaultTTL)
}

func provideSearchBooksUseCase(
	cfg *config.Config,
	bookService book.Service,
	cacheStore cache.Store,
	resolver appbook.URLResolver,
) *appsearch.SearchBooksUseCase {
	return appsearch.NewSearchBooksUseCase(bookService, cacheStore, resolver, cfg.Cache.DefaultTTL, cfg.Storage.PresignExpire)
}

// provideUserHandler 用户处理器需要从Config提取上传暂存目录
func provideUserHandler(
	cfg *config.Config,
	registerUseCase *appuser.RegisterUseCase,
	loginUseCase *appuser.LoginUseCase,
	logoutUseCase *appuser.LogoutUseCase,
	refreshUseCase *appuser.RefreshTokenUseCase,
) *handler.UserHandler {
	return handler.NewUserHandler(registerUseCase, loginUseCase, logoutUseCase, refreshUseCase, cfg.Server.UploadDir)
}

// provideBookHandler 图书处理器需要从Config提取上传暂存目录
func provideBookHandler(
	cfg *config.Config,
	publishUseCase *appbook.PublishBookUseCase,
	listUseCase *appbook.ListBooksUseCase,
	getUseCase *appbook.GetBookUseCase,
	updateUseCase *appbook.UpdateBookUseCase,
	deleteUseCase *appbook.DeleteBookUseCase,
) *handler.BookHandler {
	return handler.NewBookHandler(publishUseCase, listUseCase, getUseCase, updateUseCase, deleteUseCase, cfg.Server.UploadDir)
}

// provideGinEngine 创建并配置Gin引擎
func provideGinEngine(
	cfg *config.Config,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	reviewHandler *handler.ReviewHandler,
	searchHandler *handler.SearchHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.Metrics(), middleware.Tracing())

	// /ping、/metrics、/swagger与API路由统一在registerRoutes注册
	registerRoutes(r, userHandler, bookHandler, reviewHandler, searchHandler, authMiddleware)

	return r
}

// InitializeApp 初始化整个应用
func InitializeApp() (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		provideGinEngine,
	)

	return nil, nil
}
