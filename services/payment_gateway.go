package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rifqimaulido/pickup-app/models"
)

// GatewayCharge is the gateway's view of one payment after an operation.
type GatewayCharge struct {
	Status        string
	TransactionID string
	ProcessedAt   *time.Time
}

// PaymentGateway abstracts the external payment provider. The order core
// only depends on these three operations; provider protocol details stay
// behind the implementations.
type PaymentGateway interface {
	Authorize(orderNumber string, amount, taxAmount float64, method string) (*GatewayCharge, error)
	Capture(transactionID string) (*GatewayCharge, error)
	Refund(transactionID string) (*GatewayCharge, error)
}

// CompositeGateway routes on_site charges to the cash gateway and online
// ones to the provider gateway. Capture/refund route by the CASH- prefix
// cash transaction ids carry.
type CompositeGateway struct {
	cash   PaymentGateway
	online PaymentGateway
}

func NewCompositeGateway(cash, online PaymentGateway) *CompositeGateway {
	return &CompositeGateway{cash: cash, online: online}
}

func (g *CompositeGateway) Authorize(orderNumber string, amount, taxAmount float64, method string) (*GatewayCharge, error) {
	if method == models.PaymentMethodOnline {
		return g.online.Authorize(orderNumber, amount, taxAmount, method)
	}
	return g.cash.Authorize(orderNumber, amount, taxAmount, method)
}

func (g *CompositeGateway) Capture(transactionID string) (*GatewayCharge, error) {
	return g.route(transactionID).Capture(transactionID)
}

func (g *CompositeGateway) Refund(transactionID string) (*GatewayCharge, error) {
	return g.route(transactionID).Refund(transactionID)
}

func (g *CompositeGateway) route(transactionID string) PaymentGateway {
	if strings.HasPrefix(transactionID, "CASH-") {
		return g.cash
	}
	return g.online
}

// CashGateway handles on-site payments. Authorization only reserves a
// pending row; the charge is settled at the counter when the order goes
// ready.
type CashGateway struct{}

func NewCashGateway() *CashGateway {
	return &CashGateway{}
}

func (g *CashGateway) Authorize(orderNumber string, amount, taxAmount float64, method string) (*GatewayCharge, error) {
	return &GatewayCharge{
		Status:        models.PaymentStatusPending,
		TransactionID: "CASH-" + uuid.NewString(),
	}, nil
}

func (g *CashGateway) Capture(transactionID string) (*GatewayCharge, error) {
	now := time.Now()
	return &GatewayCharge{
		Status:        models.PaymentStatusCaptured,
		TransactionID: transactionID,
		ProcessedAt:   &now,
	}, nil
}

func (g *CashGateway) Refund(transactionID string) (*GatewayCharge, error) {
	now := time.Now()
	return &GatewayCharge{
		Status:        models.PaymentStatusRefunded,
		TransactionID: transactionID,
		ProcessedAt:   &now,
	}, nil
}
