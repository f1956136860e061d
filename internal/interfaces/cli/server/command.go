package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	catalogUC "meridian/internal/application/catalog/usecases"
	entitlementUC "meridian/internal/application/entitlement/usecases"
	nodeUC "meridian/internal/application/node/usecases"
	orderUC "meridian/internal/application/order/usecases"
	settingUC "meridian/internal/application/setting/usecases"
	signinUC "meridian/internal/application/signin/usecases"
	trafficUC "meridian/internal/application/traffic/usecases"
	userUC "meridian/internal/application/user/usecases"
	"meridian/internal/infrastructure/agent"
	"meridian/internal/infrastructure/auth"
	"meridian/internal/infrastructure/cache"
	"meridian/internal/infrastructure/config"
	"meridian/internal/infrastructure/database"
	"meridian/internal/infrastructure/migration"
	"meridian/internal/infrastructure/repository"
	httpRouter "meridian/internal/interfaces/http"
	"meridian/internal/interfaces/http/handlers"
	"meridian/internal/interfaces/http/middleware"
	"meridian/internal/shared/biztime"
	"meridian/internal/shared/db"
	"meridian/internal/shared/logger"
)

var (
	env                string
	autoMigrate        bool
	skipMigrationCheck bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the Meridian HTTP server with specified configuration.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")
	cmd.Flags().BoolVar(&skipMigrationCheck, "skip-migration-check", false, "Skip migration status check on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("starting server",
		"environment", env,
		"auto_migrate", autoMigrate)

	if err := biztime.Init(""); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	gin.SetMode(mapEnvToGinMode(env))
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
	}

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := handleMigrations(env); err != nil {
		logger.Fatal("migration handling failed", "error", err)
	}

	log := logger.NewLogger()
	gdb := database.Get()
	txManager := db.NewTransactionManager(gdb)

	userRepo := repository.NewUserRepository(gdb, log)
	clientRepo := repository.NewUserClientRepository(gdb, log)
	groupRepo := repository.NewPlanGroupRepository(gdb, log)
	planRepo := repository.NewPlanRepository(gdb, log)
	planNodeRepo := repository.NewPlanNodeRepository(gdb, log)
	nodeRepo := repository.NewNodeRepository(gdb, log)
	nodeTrafficRepo := repository.NewNodeTrafficRepository(gdb, log)
	orderRepo := repository.NewOrderRepository(gdb, log)
	entitlementRepo := repository.NewEntitlementRepository(gdb, log)
	signinRepo := repository.NewSigninRepository(gdb, log)
	settingRepo := repository.NewSettingRepository(gdb, log)

	passwordHasher := auth.NewPasswordHasher(cfg.Auth.Password.BcryptCost)
	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes, cfg.Auth.JWT.RefreshExpDays)
	keyHolder := auth.NewInternalKeyHolder(cfg.Internal.APIKey)
	agentClient := agent.NewClient(log)

	var minuteRecorder trafficUC.MinuteRecorder
	var seriesReader trafficUC.MinuteSeriesReader
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, minute traffic series disabled", "error", err)
	} else {
		trafficCache := cache.NewUserTrafficCache(redisClient, log)
		minuteRecorder = trafficCache
		seriesReader = trafficCache
	}

	internalKeyUseCase := settingUC.NewInternalKeyUseCase(settingRepo, keyHolder, log)
	if err := internalKeyUseCase.Load(context.Background()); err != nil {
		logger.Warn("failed to load internal API key from settings", "error", err)
	}

	refreshUseCase := entitlementUC.NewRefreshEntitlementStatusUseCase(entitlementRepo, log)
	grantUseCase := entitlementUC.NewGrantEntitlementUseCase(entitlementRepo, planRepo, log)
	revokeUseCase := entitlementUC.NewRevokeEntitlementUseCase(entitlementRepo, log)
	planIDsUseCase := entitlementUC.NewActivePlanIDsUseCase(entitlementRepo, log)

	loginUseCase := userUC.NewLoginUseCase(userRepo, passwordHasher, jwtService, log)
	registerUseCase := userUC.NewRegisterUseCase(userRepo, clientRepo, passwordHasher, log)
	manageUsersUseCase := userUC.NewManageUsersUseCase(userRepo, clientRepo, entitlementRepo, log)
	manageClientsUseCase := userUC.NewManageClientsUseCase(clientRepo, log)

	manageGroupsUseCase := catalogUC.NewManageGroupsUseCase(groupRepo, planRepo, log)
	managePlansUseCase := catalogUC.NewManagePlansUseCase(planRepo, groupRepo, planNodeRepo, log)

	createOrderUseCase := orderUC.NewCreateOrderUseCase(orderRepo, planRepo, groupRepo, entitlementRepo, grantUseCase, txManager, log)
	payOrderUseCase := orderUC.NewPayOrderUseCase(orderRepo, userRepo, grantUseCase, txManager, log)
	cancelOrderUseCase := orderUC.NewCancelOrderUseCase(orderRepo, log)
	forceCancelUseCase := orderUC.NewForceCancelOrderUseCase(orderRepo, log)
	listOrdersUseCase := orderUC.NewListOrdersUseCase(orderRepo, log)
	activeEntitlementsUseCase := orderUC.NewGetActiveEntitlementsUseCase(entitlementRepo, log)
	remainingUseCase := orderUC.NewGetRemainingUseCase(entitlementRepo, log)
	unsubscribeUseCase := orderUC.NewUnsubscribeUseCase(orderRepo, userRepo, entitlementRepo, revokeUseCase, txManager, log)
	upgradePreviewUseCase := orderUC.NewUpgradePreviewUseCase(planRepo, groupRepo, entitlementRepo, orderRepo, log)
	upgradeConfirmUseCase := orderUC.NewUpgradeConfirmUseCase(upgradePreviewUseCase, planRepo, orderRepo, log)

	registerNodeUseCase := nodeUC.NewRegisterNodeUseCase(nodeRepo, planNodeRepo, log)
	manageNodesUseCase := nodeUC.NewManageNodesUseCase(nodeRepo, planNodeRepo, txManager, log)
	importNodesUseCase := nodeUC.NewImportNodesUseCase(agentClient, registerNodeUseCase, planNodeRepo, log)
	allowedUseCase := nodeUC.NewAllowedIdentitiesUseCase(entitlementRepo, clientRepo, planNodeRepo, planIDsUseCase, log)
	pushUseCase := nodeUC.NewPushIdentitiesUseCase(nodeRepo, allowedUseCase, agentClient, log)
	authorizeUseCase := nodeUC.NewAuthorizeConnectionUseCase(clientRepo, userRepo, entitlementRepo, planNodeRepo, refreshUseCase, planIDsUseCase, log)

	reportTrafficUseCase := trafficUC.NewReportTrafficUseCase(clientRepo, userRepo, entitlementRepo, nodeTrafficRepo, txManager, minuteRecorder, log)
	userTrafficUseCase := trafficUC.NewGetUserTrafficUseCase(userRepo, entitlementRepo, seriesReader, log)

	signinUseCase := signinUC.NewDailySigninUseCase(
		userRepo, signinRepo, entitlementRepo, orderRepo, groupRepo, planRepo,
		txManager, cfg.Signin.MaxBonusBytes, cfg.Signin.ExtendMinutes, log)

	authHandler := handlers.NewAuthHandler(loginUseCase, registerUseCase, log)
	catalogHandler := handlers.NewCatalogHandler(manageGroupsUseCase, managePlansUseCase, log)
	orderHandler := handlers.NewOrderHandler(
		createOrderUseCase, payOrderUseCase, cancelOrderUseCase, forceCancelUseCase,
		listOrdersUseCase, activeEntitlementsUseCase, remainingUseCase,
		unsubscribeUseCase, upgradePreviewUseCase, upgradeConfirmUseCase, log)
	nodeHandler := handlers.NewNodeHandler(manageNodesUseCase, importNodesUseCase, pushUseCase, log)
	userHandler := handlers.NewUserHandler(manageUsersUseCase, manageClientsUseCase, signinUseCase, userTrafficUseCase, log)
	internalHandler := handlers.NewInternalHandler(authorizeUseCase, allowedUseCase, registerNodeUseCase, reportTrafficUseCase, userTrafficUseCase, log)
	settingHandler := handlers.NewSettingHandler(internalKeyUseCase, log)

	authMW := middleware.NewAuthMiddleware(jwtService, log)
	internalMW := middleware.NewInternalTokenMiddleware(keyHolder, log)

	router := httpRouter.NewRouter(
		authHandler, catalogHandler, orderHandler, nodeHandler,
		userHandler, internalHandler, settingHandler,
		authMW, internalMW, cfg.Server.AllowedOrigins, log)

	engine := gin.New()
	router.Setup(engine)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", gin.Mode())

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exited gracefully")
	return nil
}

func handleMigrations(environment string) error {
	if skipMigrationCheck {
		logger.Info("skipping migration check")
		return nil
	}

	if autoMigrate {
		if environment == "production" {
			logger.Warn("auto-migration is enabled in production environment - this is not recommended!")
		}

		logger.Info("running auto-migration")
		if err := migration.Run(database.Get(), logger.NewLogger()); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		return nil
	}

	logger.Info("checking migration status")

	status, err := migration.Status(database.Get())
	if err != nil {
		logger.Warn("failed to check migration status", "error", err)
		return nil
	}

	missing := 0
	for table, ok := range status {
		if !ok {
			logger.Warn("table missing, run migrations", "table", table)
			missing++
		}
	}
	if missing == 0 {
		logger.Info("all tables present", "tables", len(status))
	}

	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod":
		return "release"
	case "development", "dev":
		return "debug"
	case "test", "testing":
		return "test"
	case "debug":
		return "debug"
	case "release":
		return "release"
	default:
		return "debug"
	}
}
