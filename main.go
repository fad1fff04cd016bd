package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/rifqimaulido/pickup-app/config"
	"github.com/rifqimaulido/pickup-app/models"
	"github.com/rifqimaulido/pickup-app/router"
	"github.com/rifqimaulido/pickup-app/services"
	"github.com/rifqimaulido/pickup-app/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	utils.InitLogger()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// The notifier falls back to plain logging when no broker is configured.
	var notifier services.Notifier = services.NewLogNotifier()
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		amqpNotifier, err := services.NewAMQPNotifier(amqpURL)
		if err != nil {
			utils.ErrorLogger.Errorf("AMQP notifier unavailable, falling back to log notifier: %v", err)
		} else {
			defer amqpNotifier.Close()
			notifier = amqpNotifier
		}
	}

	// On-site payments settle at the counter; online ones go through
	// Midtrans. The placement engine picks per order method.
	midtrans := services.NewMidtransGateway()
	gateway := services.NewCompositeGateway(services.NewCashGateway(), midtrans)

	orderService := services.NewOrderService(db, gateway, notifier, config.TaxRate())
	lifecycleService := services.NewLifecycleService(db, gateway, notifier)

	r := router.SetupRouter(db, orderService, lifecycleService, midtrans)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Dish{},
		&models.DishVariant{},
		&models.TimeSlot{},
		&models.PromoCode{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.OrderPromoUsage{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
