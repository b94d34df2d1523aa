package models

import "time"

// PixChargeRequest is what the gateway needs to create an instant-payment
// charge and hand back a QR code.
type PixChargeRequest struct {
	Buyer  Buyer
	Amount float64
}

// PixCharge is the gateway's answer to a PIX charge: the charge id used for
// status polling, the QR image and the copy-paste payload.
type PixCharge struct {
	ChargeID     string `json:"chargeId"`
	EncodedImage string `json:"encodedImage"` // base64 PNG
	Payload      string `json:"payload"`
}

// CardChargeRequest is the synchronous card submission, including the
// anti-fraud holder fields.
type CardChargeRequest struct {
	Buyer  Buyer
	Card   CardDetails
	Amount float64
}

// CardCharge is the gateway's synchronous card answer.
type CardCharge struct {
	ChargeID string `json:"chargeId"`
	Status   string `json:"status"`
}

// PaymentRecord is a settled charge as persisted for the sales view and for
// the find-payment-class lookup.
type PaymentRecord struct {
	ID        string         `json:"id" bson:"id"`
	BuyerName string         `json:"name" bson:"name"`
	Email     string         `json:"email" bson:"email"`
	CpfCnpj   string         `json:"cpfCnpj" bson:"cpfCnpj"`
	Amount    float64        `json:"value" bson:"value"`
	Method    PaymentMethod  `json:"method" bson:"method"`
	ChargeID  string         `json:"chargeId" bson:"chargeId"`
	Item      ItemDescriptor `json:"item" bson:"item"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
}
