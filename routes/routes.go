package routes

import (
	"net/http"
	"time"

	"agendify/handlers"
	"agendify/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterScheduleRoutes registers the professor configuration endpoints and
// the slot resolution endpoint.
func RegisterScheduleRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/findConfigSchedule", hb.FindConfigScheduleHandler)
	r.POST("/AddConfigSchedule", hb.AddConfigScheduleHandler)
	r.POST("/findAvailableSlots", hb.FindAvailableSlotsHandler)
}

// RegisterCheckoutRoutes registers the payment endpoints. The route names
// match what the storefront has always called.
func RegisterCheckoutRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/payperclass-pix", hb.PayPerClassPixHandler)
	r.POST("/payperclass-creditcard", hb.PayPerClassCreditCardHandler)
	r.POST("/find-payment-class", hb.FindPaymentClassHandler)
	r.POST("/checkout/cancel", hb.CancelCheckoutHandler)
	r.POST("/checkout/session", hb.CheckoutSessionHandler)
}

// RegisterAgendaRoutes registers the booked-lessons endpoints.
func RegisterAgendaRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/addAgenda", hb.AddAgendaHandler)
	r.POST("/findAgenda", hb.FindAgendaHandler)
}

// RegisterCatalogRoutes registers the read-only storefront catalog.
func RegisterCatalogRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/getProfessor", hb.ListProfessorsHandler)
	r.GET("/getProducts", hb.ListProductsHandler)
	r.GET("/getPackages", hb.ListPackagesHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterScheduleRoutes(r, hb)
	RegisterCheckoutRoutes(r, hb)
	RegisterAgendaRoutes(r, hb)
	RegisterCatalogRoutes(r, hb)
	RegisterHealthRoute(r)
}
