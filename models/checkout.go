package models

import (
	"errors"
	"time"
)

// PaymentMethod selects how a checkout is settled.
type PaymentMethod string

const (
	MethodPix  PaymentMethod = "PIX"
	MethodCard PaymentMethod = "CARD"
)

// CheckoutState enumerates the payment-confirmation state machine. One
// explicit state per session replaces the pile of modal flags the old client
// kept in sync by hand.
type CheckoutState string

const (
	StateAwaitingMethod     CheckoutState = "AWAITING_METHOD"
	StateCardForm           CheckoutState = "CARD_FORM"
	StateSubmitting         CheckoutState = "SUBMITTING"
	StateAwaitingSettlement CheckoutState = "AWAITING_SETTLEMENT"
	StateConfirmed          CheckoutState = "CONFIRMED"
	StateFailed             CheckoutState = "FAILED"
	StateCancelled          CheckoutState = "CANCELLED"
)

// Terminal reports whether no further transition can leave the state.
func (s CheckoutState) Terminal() bool {
	return s == StateConfirmed || s == StateFailed || s == StateCancelled
}

// ItemKind says what a checkout is paying for.
type ItemKind string

const (
	ItemLesson  ItemKind = "lesson"
	ItemProduct ItemKind = "product"
	ItemPackage ItemKind = "package"
)

// ItemDescriptor identifies the purchased item. For lessons, Professor and
// Specialty are set; for products/packages, Name carries the catalog name.
type ItemDescriptor struct {
	Kind      ItemKind `json:"kind"`
	Professor string   `json:"professor,omitempty"`
	Specialty string   `json:"specialty,omitempty"`
	Name      string   `json:"name,omitempty"`
}

// Buyer is the identity attached to a charge. CpfCnpj is the Brazilian tax id
// the gateway requires for both PIX and card.
type Buyer struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CpfCnpj     string `json:"cpfCnpj"`
	MobilePhone string `json:"mobilePhone,omitempty"`
}

// Validate checks the fields every payment path needs before any network call.
func (b Buyer) Validate() error {
	if b.Name == "" {
		return errors.New("buyer name is required")
	}
	if b.Email == "" {
		return errors.New("buyer email is required")
	}
	if b.CpfCnpj == "" {
		return errors.New("buyer cpf/cnpj is required")
	}
	return nil
}

// CardDetails are the card and anti-fraud holder fields the gateway requires.
type CardDetails struct {
	Number      string `json:"creditCardNumber"`
	Brand       string `json:"creditCardBrand,omitempty"`
	CCV         string `json:"creditCardCcv"`
	HolderName  string `json:"creditCardHolderName"`
	ExpiryMonth string `json:"creditCardExpiryMonth"`
	ExpiryYear  string `json:"creditCardExpiryYear"`

	HolderEmail         string `json:"holderEmail,omitempty"`
	HolderCpfCnpj       string `json:"holderCpfCnpj,omitempty"`
	HolderPostalCode    string `json:"holderPostalCode"`
	HolderAddressNumber string `json:"holderAddressNumber"`
}

// Validate enforces the required card fields. Holder email and cpf/cnpj may be
// blank, in which case the buyer's values are used at submission.
func (c CardDetails) Validate() error {
	switch {
	case c.Number == "":
		return errors.New("card number is required")
	case c.CCV == "":
		return errors.New("card ccv is required")
	case c.HolderName == "":
		return errors.New("card holder name is required")
	case c.ExpiryMonth == "" || c.ExpiryYear == "":
		return errors.New("card expiry is required")
	case c.HolderPostalCode == "":
		return errors.New("holder postal code is required")
	case c.HolderAddressNumber == "":
		return errors.New("holder address number is required")
	}
	return nil
}

// BookingSession ties one checkout attempt together: the item, the chosen
// slot (lessons only), the buyer and the amount. It exists from the moment a
// slot or item is chosen until the checkout reaches a terminal state.
type BookingSession struct {
	SessionID string         `json:"sessionId"`
	Item      ItemDescriptor `json:"item"`
	Date      string         `json:"date,omitempty"` // YYYY-MM-DD, lessons only
	Hour      string         `json:"hour,omitempty"` // HH:MM, lessons only
	Buyer     Buyer          `json:"buyer"`
	Amount    float64        `json:"amount"`

	State           CheckoutState `json:"state"`
	Method          PaymentMethod `json:"method,omitempty"`
	GatewayChargeID string        `json:"gatewayChargeId,omitempty"`
	PixEncodedImage string        `json:"pixEncodedImage,omitempty"`
	PixPayload      string        `json:"pixPayload,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
