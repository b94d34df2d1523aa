package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"agendify/models"

	"go.uber.org/zap"
)

// Gateway is the outward payment interface. PIX charges settle
// asynchronously and are observed via ChargeSettled; card charges settle
// synchronously from the caller's point of view.
type Gateway interface {
	CreatePixCharge(ctx context.Context, req models.PixChargeRequest) (*models.PixCharge, error)
	CreateCardCharge(ctx context.Context, req models.CardChargeRequest) (*models.CardCharge, error)
	ChargeSettled(ctx context.Context, chargeID string) (bool, error)
}

// GatewayError is a failure reported by the gateway itself (4xx/5xx or a
// refused charge), as opposed to transport errors.
type GatewayError struct {
	StatusCode int
	Detail     string
}

func (e *GatewayError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gateway error (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("gateway error (%d)", e.StatusCode)
}

// HTTPGateway talks to an Asaas-style charge API over JSON.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPGateway builds a gateway client. timeout bounds every call,
// including the per-tick settlement checks.
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type chargeRequestBody struct {
	BillingType string  `json:"billingType"` // "PIX" or "CREDIT_CARD"
	Value       float64 `json:"value"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	CpfCnpj     string  `json:"cpfCnpj"`
	MobilePhone string  `json:"mobilePhone,omitempty"`

	CreditCard       *creditCardBody       `json:"creditCard,omitempty"`
	CreditCardHolder *creditCardHolderBody `json:"creditCardHolderInfo,omitempty"`
}

type creditCardBody struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	Ccv         string `json:"ccv"`
}

type creditCardHolderBody struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CpfCnpj       string `json:"cpfCnpj"`
	PostalCode    string `json:"postalCode"`
	AddressNumber string `json:"addressNumber"`
	Phone         string `json:"phone,omitempty"`
}

type chargeResponseBody struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ErrorDetail string `json:"errorDetail,omitempty"`
}

type pixQrCodeResponseBody struct {
	EncodedImage string `json:"encodedImage"`
	Payload      string `json:"payload"`
}

// CreatePixCharge creates the charge, then fetches its QR code. Both calls
// must succeed for the checkout to show anything to the buyer.
func (g *HTTPGateway) CreatePixCharge(ctx context.Context, req models.PixChargeRequest) (*models.PixCharge, error) {
	body := chargeRequestBody{
		BillingType: "PIX",
		Value:       req.Amount,
		Name:        req.Buyer.Name,
		Email:       req.Buyer.Email,
		CpfCnpj:     req.Buyer.CpfCnpj,
		MobilePhone: req.Buyer.MobilePhone,
	}

	var created chargeResponseBody
	if err := g.post(ctx, "/payments", body, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, &GatewayError{StatusCode: http.StatusBadGateway, Detail: "charge created without an id"}
	}

	var qr pixQrCodeResponseBody
	if err := g.get(ctx, "/payments/"+created.ID+"/pixQrCode", &qr); err != nil {
		return nil, err
	}
	if qr.Payload == "" {
		return nil, &GatewayError{StatusCode: http.StatusBadGateway, Detail: "gateway returned an empty pix payload"}
	}

	g.logger.Info("pix charge created", zap.String("chargeId", created.ID), zap.Float64("value", req.Amount))
	return &models.PixCharge{ChargeID: created.ID, EncodedImage: qr.EncodedImage, Payload: qr.Payload}, nil
}

// CreateCardCharge submits the card synchronously. A refused charge comes
// back as a GatewayError carrying the gateway's detail message.
func (g *HTTPGateway) CreateCardCharge(ctx context.Context, req models.CardChargeRequest) (*models.CardCharge, error) {
	holderEmail := req.Card.HolderEmail
	if holderEmail == "" {
		holderEmail = req.Buyer.Email
	}
	holderCpf := req.Card.HolderCpfCnpj
	if holderCpf == "" {
		holderCpf = req.Buyer.CpfCnpj
	}
	holderName := req.Card.HolderName

	body := chargeRequestBody{
		BillingType: "CREDIT_CARD",
		Value:       req.Amount,
		Name:        req.Buyer.Name,
		Email:       req.Buyer.Email,
		CpfCnpj:     req.Buyer.CpfCnpj,
		MobilePhone: req.Buyer.MobilePhone,
		CreditCard: &creditCardBody{
			HolderName:  req.Card.HolderName,
			Number:      req.Card.Number,
			ExpiryMonth: req.Card.ExpiryMonth,
			ExpiryYear:  req.Card.ExpiryYear,
			Ccv:         req.Card.CCV,
		},
		CreditCardHolder: &creditCardHolderBody{
			Name:          holderName,
			Email:         holderEmail,
			CpfCnpj:       holderCpf,
			PostalCode:    req.Card.HolderPostalCode,
			AddressNumber: req.Card.HolderAddressNumber,
			Phone:         req.Buyer.MobilePhone,
		},
	}

	var resp chargeResponseBody
	if err := g.post(ctx, "/payments", body, &resp); err != nil {
		return nil, err
	}
	if !cardSettled(resp.Status) {
		detail := resp.ErrorDetail
		if detail == "" {
			detail = fmt.Sprintf("card charge not settled (status %s)", resp.Status)
		}
		return nil, &GatewayError{StatusCode: http.StatusPaymentRequired, Detail: detail}
	}

	g.logger.Info("card charge settled", zap.String("chargeId", resp.ID), zap.String("status", resp.Status))
	return &models.CardCharge{ChargeID: resp.ID, Status: resp.Status}, nil
}

// ChargeSettled reports whether an existing charge has settled. Used as the
// poll predicate for PIX.
func (g *HTTPGateway) ChargeSettled(ctx context.Context, chargeID string) (bool, error) {
	var resp chargeResponseBody
	if err := g.get(ctx, "/payments/"+chargeID, &resp); err != nil {
		return false, err
	}
	return cardSettled(resp.Status), nil
}

func cardSettled(status string) bool {
	return status == "CONFIRMED" || status == "RECEIVED"
}

func (g *HTTPGateway) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode gateway request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *HTTPGateway) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return err
	}
	return g.do(req, out)
}

func (g *HTTPGateway) do(req *http.Request, out any) error {
	req.Header.Set("access_token", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := gatewayErrorDetail(raw)
		g.logger.Warn("gateway returned an error",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail))
		return &GatewayError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &GatewayError{StatusCode: resp.StatusCode, Detail: "malformed gateway response"}
		}
	}
	return nil
}

func gatewayErrorDetail(raw []byte) string {
	var body struct {
		ErrorDetail string `json:"errorDetail"`
		Errors      []struct {
			Description string `json:"description"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.ErrorDetail != "" {
			return body.ErrorDetail
		}
		if len(body.Errors) > 0 {
			return body.Errors[0].Description
		}
	}
	return ""
}
