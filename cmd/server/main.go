package main

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/course-registration/internal/config"
    "github.com/iliyamo/course-registration/internal/database"
    "github.com/iliyamo/course-registration/internal/handler"
    "github.com/iliyamo/course-registration/internal/middleware"
    "github.com/iliyamo/course-registration/internal/queue"
    "github.com/iliyamo/course-registration/internal/repository"
    "github.com/iliyamo/course-registration/internal/router"
    "github.com/iliyamo/course-registration/internal/service"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis is optional: cache and rate limiting degrade to
    // pass-through middleware when the client is nil.
    rdb := config.NewRedisClient()

    courseRepo := repository.NewCourseRepo(db)
    regRepo := repository.NewRegistrationRepo(db)
    userRepo := repository.NewUserRepo(db)
    tokenRepo := repository.NewTokenRepo(db)

    var events service.EventPublisher
    if cfg.AMQPURL != "" {
        events = service.NewPublisher(cfg.AMQPURL)
        go queue.StartConsumer(cfg.AMQPURL)
    } else {
        log.Println("AMQP URL not set, registration events disabled")
    }

    regService := service.NewRegistrationService(db, courseRepo, regRepo, events)

    authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo, regRepo)
    courseHandler := handler.NewCourseHandler(courseRepo)
    regHandler := handler.NewRegistrationHandler(regService, regRepo)
    reportHandler := handler.NewReportHandler(courseRepo, regRepo, regService)
    seedHandler := handler.NewSeedHandler(cfg, userRepo)

    e := echo.New()
    e.HideBanner = true

    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret)
    router.RegisterCourses(e, courseHandler, cfg.JWTSecret, cache)
    router.RegisterRegistrations(e, regHandler, cfg.JWTSecret)
    router.RegisterReports(e, reportHandler, cfg.JWTSecret, cache)
    router.RegisterSeed(e, seedHandler)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
