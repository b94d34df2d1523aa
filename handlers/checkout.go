package handlers

import (
	"errors"
	"net/http"

	"agendify/models"
	"agendify/services/checkout"
	"agendify/services/payment"
	"agendify/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckoutHandler serves the payment endpoints. The wire shapes are flat:
// buyer identity, amount and the optional booking fields travel side by side
// the way the storefront has always sent them.
type CheckoutHandler struct {
	Service *checkout.Service
}

func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{Service: svc}
}

// checkoutInput is the shared request shape of both payment endpoints.
type checkoutInput struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	CpfCnpj     string  `json:"cpfCnpj"`
	MobilePhone string  `json:"mobilePhone"`
	Value       float64 `json:"value"`

	// Optional booking fields. When professor and date are present the
	// settlement books a lesson on the professor's agenda.
	Professor string `json:"professor"`
	Specialty string `json:"specialty"`
	Date      string `json:"date"`
	Hour      string `json:"hour"`

	// Optional catalog purchase fields.
	Item     string `json:"item"`     // "lesson", "product" or "package"
	ItemName string `json:"itemName"` // product or package name
}

func (in checkoutInput) toStartRequest() checkout.StartRequest {
	kind := models.ItemKind(in.Item)
	if kind == "" {
		kind = models.ItemLesson
	}
	return checkout.StartRequest{
		Buyer: models.Buyer{
			Name:        in.Name,
			Email:       in.Email,
			CpfCnpj:     in.CpfCnpj,
			MobilePhone: in.MobilePhone,
		},
		Amount: in.Value,
		Item: models.ItemDescriptor{
			Kind:      kind,
			Professor: in.Professor,
			Specialty: in.Specialty,
			Name:      in.ItemName,
		},
		Date: in.Date,
		Hour: in.Hour,
	}
}

// PayPerClassPix opens a PIX checkout and returns the QR code.
func (h *CheckoutHandler) PayPerClassPix(c *gin.Context) {
	var input checkoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	session, err := h.Service.StartPixCheckout(c.Request.Context(), input.toStartRequest())
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}

	getLogger(c).Info("pix checkout started",
		zap.String("name", input.Name),
		zap.String("sessionId", session.SessionID))
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"sessionId":    session.SessionID,
		"encodedImage": session.PixEncodedImage,
		"payload":      session.PixPayload,
	})
}

// creditCardInput extends the shared shape with the card and anti-fraud
// holder fields.
type creditCardInput struct {
	checkoutInput

	CreditCardNumber      string `json:"creditCardNumber"`
	CreditCardBrand       string `json:"creditCardBrand"`
	CreditCardCcv         string `json:"creditCardCcv"`
	CreditCardHolderName  string `json:"creditCardHolderName"`
	CreditCardExpiryMonth string `json:"creditCardExpiryMonth"`
	CreditCardExpiryYear  string `json:"creditCardExpiryYear"`

	HolderEmail         string `json:"holderEmail"`
	HolderCpfCnpj       string `json:"holderCpfCnpj"`
	HolderPostalCode    string `json:"holderPostalCode"`
	HolderAddressNumber string `json:"holderAddressNumber"`
}

// PayPerClassCreditCard submits a card charge synchronously.
func (h *CheckoutHandler) PayPerClassCreditCard(c *gin.Context) {
	var input creditCardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	card := models.CardDetails{
		Number:              input.CreditCardNumber,
		Brand:               input.CreditCardBrand,
		CCV:                 input.CreditCardCcv,
		HolderName:          input.CreditCardHolderName,
		ExpiryMonth:         input.CreditCardExpiryMonth,
		ExpiryYear:          input.CreditCardExpiryYear,
		HolderEmail:         input.HolderEmail,
		HolderCpfCnpj:       input.HolderCpfCnpj,
		HolderPostalCode:    input.HolderPostalCode,
		HolderAddressNumber: input.HolderAddressNumber,
	}

	session, err := h.Service.SubmitCardCheckout(c.Request.Context(), input.toStartRequest(), card)
	if err != nil {
		var gwErr *payment.GatewayError
		if errors.As(err, &gwErr) {
			// A refused card is a normal answer, not a server error. The
			// buyer stays on the form and sees the gateway's reason.
			c.JSON(http.StatusOK, gin.H{
				"success":     false,
				"status":      "REFUSED",
				"errorDetail": gwErr.Detail,
			})
			return
		}
		h.writeCheckoutError(c, err)
		return
	}

	getLogger(c).Info("card checkout confirmed",
		zap.String("name", input.Name),
		zap.String("sessionId", session.SessionID))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "CONFIRMED",
	})
}

// FindPaymentClass reports whether the buyer's charge has settled. The
// booking page polls this endpoint while the PIX QR code is on screen.
func (h *CheckoutHandler) FindPaymentClass(c *gin.Context) {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Name == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "name is required")
		return
	}

	paid, err := h.Service.IsPaid(c.Request.Context(), input.Name)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to check payment", err.Error())
		return
	}
	c.JSON(http.StatusOK, paid)
}

// CancelCheckout tears down the buyer's live session and stops its poller.
func (h *CheckoutHandler) CancelCheckout(c *gin.Context) {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	session, err := h.Service.Cancel(c.Request.Context(), input.Name)
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   session.State,
	})
}

// CheckoutSession exposes the buyer's live session snapshot, including the
// last gateway failure.
func (h *CheckoutHandler) CheckoutSession(c *gin.Context) {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	session, failure, err := h.Service.SessionByBuyer(input.Name)
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": session,
		"failure": failure,
	})
}

func (h *CheckoutHandler) writeCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "checkout session not found", "")
	case errors.Is(err, checkout.ErrUnknownProfessor):
		utils.JSONError(c, http.StatusNotFound, "unknown professor", err.Error())
	case errors.Is(err, checkout.ErrTransitionInFlight):
		utils.JSONError(c, http.StatusConflict, "checkout busy", "another operation on this checkout is still running")
	case errors.Is(err, checkout.ErrInvalidTransition), errors.Is(err, checkout.ErrSessionTerminal):
		utils.JSONError(c, http.StatusConflict, "invalid checkout state", err.Error())
	default:
		var gwErr *payment.GatewayError
		if errors.As(err, &gwErr) {
			c.JSON(http.StatusBadGateway, gin.H{
				"success":     false,
				"errorDetail": gwErr.Detail,
			})
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "checkout failed", err.Error())
	}
}
