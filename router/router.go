package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rifqimaulido/pickup-app/controllers"
	"github.com/rifqimaulido/pickup-app/middlewares"
	"github.com/rifqimaulido/pickup-app/services"
)

// SetupRouter wires every endpoint. Customer-facing routes are public;
// staff routes sit behind JWT auth and role checks.
func SetupRouter(db *gorm.DB, orders *services.OrderService, lifecycle *services.LifecycleService, midtrans *services.MidtransGateway) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	userCtrl := controllers.NewUserController(db)
	dishCtrl := controllers.NewDishController(db)
	slotCtrl := controllers.NewTimeSlotController(db)
	promoCtrl := controllers.NewPromoController(db)
	orderCtrl := controllers.NewOrderController(db, orders, lifecycle)
	paymentCtrl := controllers.NewPaymentController(db, midtrans)

	// Auth
	auth := r.Group("/auth")
	{
		auth.POST("/register", userCtrl.Register)
		auth.POST("/login", middlewares.NewStrictRateLimiter(), userCtrl.Login)
		auth.POST("/logout", middlewares.AuthMiddleware(), userCtrl.Logout)
		auth.GET("/profile", middlewares.AuthMiddleware(), userCtrl.GetProfile)
	}

	// Public catalog and ordering
	r.GET("/dishes", dishCtrl.GetAllDishes)
	r.GET("/dishes/:dish_id", dishCtrl.GetDishByID)
	r.GET("/time-slots", slotCtrl.GetAllTimeSlots)
	r.POST("/orders", orderCtrl.PlaceOrder)
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	r.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)

	// Payment gateway callback
	r.POST("/payments/midtrans/callback", paymentCtrl.MidtransCallback)

	// Staff routes
	staff := r.Group("/staff")
	staff.Use(middlewares.AuthMiddleware(), middlewares.RequireRoles("staff"))
	{
		staff.GET("/orders", orderCtrl.GetAllOrders)
		staff.PATCH("/orders/:order_id", orderCtrl.UpdateOrderStatus)
		staff.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)
		staff.GET("/orders/verify/:code", orderCtrl.VerifyPickup)
		staff.GET("/orders/:order_id/payments", paymentCtrl.GetPaymentsByOrder)

		staff.POST("/dishes", dishCtrl.CreateDish)
		staff.PATCH("/dishes/:dish_id", dishCtrl.UpdateDish)
		staff.PATCH("/dishes/:dish_id/stock", dishCtrl.UpdateStock)
		staff.DELETE("/dishes/:dish_id", dishCtrl.DeleteDish)
		staff.POST("/dishes/:dish_id/variants", dishCtrl.CreateVariant)
		staff.PATCH("/dishes/:dish_id/variants/:variant_id", dishCtrl.UpdateVariant)
		staff.PATCH("/dishes/:dish_id/variants/:variant_id/default", dishCtrl.SetDefaultVariant)
		staff.DELETE("/dishes/:dish_id/variants/:variant_id", dishCtrl.DeleteVariant)

		staff.POST("/time-slots", slotCtrl.CreateTimeSlot)
		staff.PATCH("/time-slots/:slot_id", slotCtrl.UpdateTimeSlot)
		staff.DELETE("/time-slots/:slot_id", slotCtrl.DeleteTimeSlot)

		staff.GET("/promo-codes", promoCtrl.GetAllPromoCodes)
		staff.POST("/promo-codes", promoCtrl.CreatePromoCode)
		staff.PATCH("/promo-codes/:promo_id", promoCtrl.SetPromoActive)
	}

	// Live order board
	r.GET("/ws/board", middlewares.WebSocketAuthMiddleware(), controllers.BoardWebSocket)

	return r
}
