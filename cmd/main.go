package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"grocery-service/internal/api"
	"grocery-service/internal/config"
	"grocery-service/internal/repository"
	"grocery-service/internal/service"
	"grocery-service/migrations"
)

func connectDB(host, port, user, pass, dbname string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("Connected to DB %s", dbname)
				return db, nil
			}
		}
		log.Printf("Retry %d: Failed to connect to DB %s (%s:%s): %v", i+1, dbname, host, port, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v", dbname, host, port, err)
}

func main() {
	config.LoadEnv()

	db, err := connectDB(
		config.Getenv("DB_HOST", "127.0.0.1"),
		config.Getenv("DB_PORT", "3306"),
		config.Getenv("DB_USER", "root"),
		config.Getenv("DB_PASS", ""),
		config.Getenv("DB_NAME", "grocery"),
	)
	if err != nil {
		panic(err)
	}

	if err := migrations.AutoMigrateUsers(3, db); err != nil {
		log.Fatalf("Failed to migrate users table: %v", err)
	}
	if err := migrations.AutoMigrateProducts(3, db); err != nil {
		log.Fatalf("Failed to migrate products table: %v", err)
	}
	if err := migrations.AutoMigrateOrders(3, db); err != nil {
		log.Fatalf("Failed to migrate orders table: %v", err)
	}
	if err := migrations.AutoMigrateOrderItems(3, db); err != nil {
		log.Fatalf("Failed to migrate order_items table: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: config.Getenv("REDIS_ADDR", "localhost:6379"),
	})

	kafkaWriter := config.NewKafkaWriter("order-topic")
	jwtSecret := config.Getenv("JWT_SECRET", "secret")

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cartStore := repository.NewCartStore(rdb)

	userService := service.NewUserService(userRepo, rdb, jwtSecret)
	productService := service.NewProductService(productRepo, rdb)
	cartService := service.NewCartService(cartStore)
	checkoutService := service.NewCheckoutService(productService, orderRepo, userRepo, cartService, kafkaWriter, rdb)
	orderService := service.NewOrderService(orderRepo, kafkaWriter)

	userHandler := api.NewUserHandler(userService)
	productHandler := api.NewProductHandler(productService)
	cartHandler := api.NewCartHandler(cartService, productService)
	checkoutHandler := api.NewCheckoutHandler(checkoutService)
	orderHandler := api.NewOrderHandler(orderService)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(5),
				Burst:     10,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	// Public routes.
	e.POST("/users", userHandler.CreateUser)
	e.POST("/users/login", userHandler.Login)
	e.GET("/products", productHandler.ListProducts)
	e.GET("/products/:id", productHandler.GetProduct)

	// The cart is device-scoped, keyed by the Cart-Session header; no login
	// is needed to draft a cart.
	e.GET("/cart", cartHandler.GetCart)
	e.POST("/cart/items", cartHandler.AddItem)
	e.PUT("/cart/items/:id", cartHandler.UpdateQuantity)
	e.DELETE("/cart/items/:id", cartHandler.RemoveItem)
	e.DELETE("/cart", cartHandler.ClearCart)
	e.POST("/cart/items/:id/toggle", cartHandler.ToggleSelection)
	e.POST("/cart/select-all", cartHandler.SelectAll)
	e.POST("/cart/unselect-all", cartHandler.UnselectAll)
	e.POST("/checkout/validate", checkoutHandler.ValidateSelection)

	// Authenticated routes.
	auth := e.Group("")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(service.JwtCustomClaims)
		},
		SigningKey: []byte(jwtSecret),
	}))
	auth.GET("/users/validate", userHandler.ValidateSession)
	auth.GET("/users/:id", userHandler.GetUserByID)
	auth.POST("/checkout", checkoutHandler.Checkout)
	auth.GET("/orders", orderHandler.ListMyOrders)
	auth.GET("/orders/all", orderHandler.ListAllOrders)
	auth.GET("/orders/:id", orderHandler.GetOrder)
	auth.PUT("/orders/:id/status", orderHandler.UpdateStatus)
	auth.POST("/products", productHandler.CreateProduct)
	auth.PUT("/products/:id", productHandler.UpdateProduct)
	auth.DELETE("/products/:id", productHandler.DeleteProduct)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "grocery-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	e.Logger.Fatal(e.Start(":" + config.Getenv("PORT", "8080")))
}
