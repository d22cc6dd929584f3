package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

var statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded}

func ParseStatus(s string) (Status, error) {
	for _, st := range statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", apperr.Validation("unknown payout status %q", s)
}

type Method string

const (
	BankTransfer     Method = "BANK_TRANSFER"
	PayPal           Method = "PAYPAL"
	CreditCardRefund Method = "CREDIT_CARD_REFUND"
	GiftCard         Method = "GIFT_CARD"
	LoyaltyPoints    Method = "LOYALTY_POINTS"
	DigitalWallet    Method = "DIGITAL_WALLET"
	Check            Method = "CHECK"
	CryptoWallet     Method = "CRYPTO_WALLET"
)

var methods = []Method{BankTransfer, PayPal, CreditCardRefund, GiftCard, LoyaltyPoints, DigitalWallet, Check, CryptoWallet}

func ParseMethod(s string) (Method, error) {
	for _, m := range methods {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", apperr.Validation("unknown payout method %q", s)
}

type Payout struct {
	ID                  int64        `json:"id"`
	BenefitEstimationID int64        `json:"benefitEstimationId"`
	CustomerID          string       `json:"customerId"`
	OrderID             int64        `json:"orderId"`
	PayoutAmount        money.Amount `json:"payoutAmount"`
	PayoutMethod        Method       `json:"payoutMethod"`
	Status              Status       `json:"status"`
	ReferenceNumber     string       `json:"referenceNumber"`
	TransactionDetails  string       `json:"transactionDetails"`
	FailureReason       string       `json:"failureReason,omitempty"`
	PayoutDate          time.Time    `json:"payoutDate"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// NewReference returns "PAY-" followed by the 32 hex digits of a random
// UUID, upper-cased.
func NewReference() string {
	return "PAY-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func TransactionDetails(orderID int64, benefitType string, amount money.Amount, m Method, details string) string {
	if strings.TrimSpace(details) == "" {
		details = "N/A"
	}
	return fmt.Sprintf("Payout for Order #%d, Benefit Type: %s, Amount: $%s, Method: %s, Details: %s",
		orderID, benefitType, amount, m, details)
}

// Complete moves a processing payout to COMPLETED.
func (p *Payout) Complete(now time.Time) {
	p.Status = StatusCompleted
	p.TransactionDetails += " - Processed successfully"
	p.FailureReason = ""
	p.UpdatedAt = now
}

func (p *Payout) Fail(cause error, now time.Time) {
	p.Status = StatusFailed
	p.FailureReason = "Processing failed: " + cause.Error()
	p.UpdatedAt = now
}

// Filter narrows List. Zero fields do not filter.
type Filter struct {
	CustomerID          string
	OrderID             int64
	BenefitEstimationID int64
	Method              Method
	Status              Status
}

func (f Filter) Matches(p Payout) bool {
	return (f.CustomerID == "" || p.CustomerID == f.CustomerID) &&
		(f.OrderID == 0 || p.OrderID == f.OrderID) &&
		(f.BenefitEstimationID == 0 || p.BenefitEstimationID == f.BenefitEstimationID) &&
		(f.Method == "" || p.PayoutMethod == f.Method) &&
		(f.Status == "" || p.Status == f.Status)
}
