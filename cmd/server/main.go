package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/psmarket/product_api/internal/config"
	"github.com/psmarket/product_api/internal/es"
	"github.com/psmarket/product_api/internal/handlers"
	"github.com/psmarket/product_api/internal/logging"
	authmw "github.com/psmarket/product_api/internal/middleware/auth"
	loggingmw "github.com/psmarket/product_api/internal/middleware/logging"
	"github.com/psmarket/product_api/internal/mykafka"
	"github.com/psmarket/product_api/internal/repo"
	"github.com/psmarket/product_api/internal/service/token"
	httpserver "github.com/psmarket/product_api/internal/transport/http"
)

const productIndex = "product"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = mykafka.NewProducer(configuration.KAFKA_ADDRESS)
	}

	tokens := token.NewService([]byte(configuration.JWT_SECRET_KEY))

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{configuration.LIVE_URL},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	deps := httpserver.Deps{
		ProductHandler: &handlers.ProductHandler{Store: repo.NewProductRepo(db), Producer: prod, Index: productIndex},
		AuthHandler:    &handlers.AuthHandler{Store: repo.NewUserRepo(db), Tokens: tokens, Producer: prod},
		SearchHandler:  handlers.NewSearchHandler(nil, productIndex),
		Auth:           authmw.NewMiddleware(tokens),
	}

	if configuration.ES_URL != "" {
		esc, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		deps.ProductHandler.ES = esc
		deps.SearchHandler.ES = esc
	}

	httpserver.Register(e, &deps)

	port := configuration.PORT
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if err := db.Client().Disconnect(ctx); err != nil {
		log.Printf("mongo disconnect error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
