package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	consulapi "github.com/hashicorp/consul/api"
	"github.com/joho/godotenv"

	"cart-service/handlers"
	"cart-service/internal/auth"
	"cart-service/internal/cart"
	"cart-service/internal/checkout"
	"cart-service/internal/consul"
	"cart-service/internal/stores/kafka"
	"cart-service/internal/stores/memory"
	"cart-service/internal/stores/postgres"
	"cart-service/internal/stores/redis"
	"cart-service/pkg/logkey"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment variables")
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("service stopped", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys, err := auth.NewKeys(os.Getenv("JWT_SECRET"))
	if err != nil {
		return fmt.Errorf("failed to set up session keys: %w", err)
	}

	store, closeStore, err := buildStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up cart store: %w", err)
	}
	defer closeStore()

	bus := cart.NewBus()
	cConf, err := cart.NewConf(store, bus)
	if err != nil {
		return fmt.Errorf("failed to set up cart manager: %w", err)
	}

	// Optional: mirror cart events onto Kafka for out-of-process consumers.
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kConf, err := kafka.NewConf(strings.Split(brokers, ","))
		if err != nil {
			return fmt.Errorf("failed to set up kafka producer: %w", err)
		}
		defer kConf.Close()

		sub := bus.Subscribe(64)
		defer sub.Unsubscribe()
		go kConf.Forward(ctx, sub)
		slog.Info("forwarding cart events to kafka", slog.String("Topic", kafka.TopicCartUpdated))
	}

	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = "8084"
	}

	var consulClient *consulapi.Client
	if os.Getenv("CONSUL_HTTP_ADDR") != "" {
		client, err := consul.NewClient()
		if err != nil {
			return fmt.Errorf("failed to set up consul client: %w", err)
		}
		consulClient = client

		address := os.Getenv("SERVICE_ADDRESS")
		if address == "" {
			address = "localhost"
		}
		portNum, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVICE_PORT %q: %w", port, err)
		}

		serviceId := "cart-" + uuid.NewString()
		if err := consul.RegisterService(client, "cart", serviceId, address, portNum); err != nil {
			return err
		}
		defer func() {
			if err := consul.DeregisterService(client, serviceId); err != nil {
				slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
			}
		}()
	}

	orderServiceName := os.Getenv("ORDER_SERVICE_NAME")
	if orderServiceName == "" {
		orderServiceName = "orders"
	}
	ckConf, err := checkout.NewConf(consulClient, orderServiceName, os.Getenv("ORDER_SERVICE_URL"))
	if err != nil {
		return fmt.Errorf("failed to set up order submission: %w", err)
	}

	r, err := handlers.API("/v1", keys, cConf, ckConf, bus)
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	server := &http.Server{
		Addr:        ":" + port,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// no write timeout, the count stream holds its connection open
		IdleTimeout: 120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("cart service listening", slog.String("Addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		slog.Info("shutting down", slog.String("Signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func buildStore(ctx context.Context) (cart.Store, func(), error) {
	backend := os.Getenv("CART_STORE")
	if backend == "" {
		backend = "redis"
	}

	switch backend {
	case "memory":
		slog.Warn("using in-memory cart store, carts will not survive a restart")
		return memory.NewStore(), func() {}, nil

	case "redis":
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost"
		}
		if !strings.Contains(addr, ":") {
			addr += ":6379"
		}
		store, err := redis.NewStore(ctx, addr)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Error("failed to close redis client", slog.String(logkey.ERROR, err.Error()))
			}
		}, nil

	case "postgres":
		dsn := postgresDSN()
		if err := postgres.Migrate(dsn); err != nil {
			return nil, nil, err
		}
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		store, err := postgres.NewStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown CART_STORE %q", backend)
	}
}

func postgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		envOr("POSTGRES_USER", "postgres"),
		envOr("POSTGRES_PASSWORD", "postgres"),
		envOr("POSTGRES_HOST", "localhost"),
		envOr("POSTGRES_PORT", "5432"),
		envOr("POSTGRES_DB", "cartdb"),
		envOr("POSTGRES_SSLMODE", "disable"),
	)
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
