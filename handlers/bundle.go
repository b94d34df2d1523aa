// File: agendify/handlers/handlerBundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all your endpoint handlers into one struct.
type HandlerBundle struct {
	// Schedule endpoints
	FindConfigScheduleHandler gin.HandlerFunc
	AddConfigScheduleHandler  gin.HandlerFunc
	FindAvailableSlotsHandler gin.HandlerFunc

	// Checkout endpoints
	PayPerClassPixHandler        gin.HandlerFunc
	PayPerClassCreditCardHandler gin.HandlerFunc
	FindPaymentClassHandler      gin.HandlerFunc
	CancelCheckoutHandler        gin.HandlerFunc
	CheckoutSessionHandler       gin.HandlerFunc

	// Agenda endpoints
	AddAgendaHandler  gin.HandlerFunc
	FindAgendaHandler gin.HandlerFunc

	// Catalog endpoints
	ListProfessorsHandler gin.HandlerFunc
	ListProductsHandler   gin.HandlerFunc
	ListPackagesHandler   gin.HandlerFunc
}
