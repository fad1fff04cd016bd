package services

import (
	"bytes"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rifqimaulido/pickup-app/config"
	"github.com/rifqimaulido/pickup-app/models"
)

// MidtransConfig holds Midtrans credentials and merchant identity.
type MidtransConfig struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	MerchantName string
}

// MidtransGateway implements PaymentGateway over the Midtrans HTTP API for
// online payments.
type MidtransGateway struct {
	config     *MidtransConfig
	httpClient *http.Client
}

func NewMidtransGateway() *MidtransGateway {
	return &MidtransGateway{
		config: &MidtransConfig{
			ServerKey:    config.Getenv("MIDTRANS_SERVER_KEY", ""),
			ClientKey:    config.Getenv("MIDTRANS_CLIENT_KEY", ""),
			IsProduction: config.Getenv("MIDTRANS_ENV", "") == "production",
			MerchantName: config.Getenv("MIDTRANS_MERCHANT_NAME", "Pickup App"),
		},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type midtransResponse struct {
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message"`
	TransactionID     string `json:"transaction_id"`
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	TransactionTime   string `json:"transaction_time"`
}

// Authorize creates a charge for the full order amount. A successful charge
// comes back authorized; capture is finalized when the order goes ready.
func (g *MidtransGateway) Authorize(orderNumber string, amount, taxAmount float64, method string) (*GatewayCharge, error) {
	payload := map[string]interface{}{
		"payment_type": "qris",
		"transaction_details": map[string]interface{}{
			"order_id":     orderNumber,
			"gross_amount": int64(amount),
		},
		"item_details": []map[string]interface{}{
			{
				"id":       orderNumber,
				"price":    int64(amount),
				"quantity": 1,
				"name":     "Order Payment",
			},
		},
	}

	resp, err := g.post(fmt.Sprintf("%s/v2/charge", g.baseURL()), payload)
	if err != nil {
		return nil, err
	}

	return &GatewayCharge{
		Status:        models.PaymentStatusAuthorized,
		TransactionID: resp.TransactionID,
	}, nil
}

// Capture settles an authorized charge.
func (g *MidtransGateway) Capture(transactionID string) (*GatewayCharge, error) {
	payload := map[string]interface{}{
		"transaction_id": transactionID,
	}

	resp, err := g.post(fmt.Sprintf("%s/v2/capture", g.baseURL()), payload)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &GatewayCharge{
		Status:        models.PaymentStatusCaptured,
		TransactionID: resp.TransactionID,
		ProcessedAt:   &now,
	}, nil
}

// Refund reverses an authorized or captured charge.
func (g *MidtransGateway) Refund(transactionID string) (*GatewayCharge, error) {
	payload := map[string]interface{}{
		"reason": "order cancelled",
	}

	resp, err := g.post(fmt.Sprintf("%s/v2/%s/refund", g.baseURL(), transactionID), payload)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	charge := &GatewayCharge{
		Status:        models.PaymentStatusRefunded,
		TransactionID: transactionID,
		ProcessedAt:   &now,
	}
	if resp.TransactionID != "" {
		charge.TransactionID = resp.TransactionID
	}
	return charge, nil
}

// ValidateSignature checks the sha512 signature Midtrans sends on payment
// notification callbacks.
func (g *MidtransGateway) ValidateSignature(orderID, statusCode, grossAmount, signature string) bool {
	signatureString := fmt.Sprintf("%s%s%s%s", orderID, statusCode, grossAmount, g.config.ServerKey)
	hash := sha512.New()
	hash.Write([]byte(signatureString))
	return hex.EncodeToString(hash.Sum(nil)) == signature
}

func (g *MidtransGateway) post(url string, payload map[string]interface{}) (*midtransResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	authString := "Basic " + base64.StdEncoding.EncodeToString([]byte(g.config.ServerKey+":"))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authString)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("midtrans API error: %s", string(body))
	}

	var mr midtransResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}
	return &mr, nil
}

func (g *MidtransGateway) baseURL() string {
	if g.config.IsProduction {
		return "https://api.midtrans.com"
	}
	return "https://api.sandbox.midtrans.com"
}
