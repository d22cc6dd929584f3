package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
)

type BenefitType string

const (
	Cashback           BenefitType = "CASHBACK"
	LoyaltyPoints      BenefitType = "LOYALTY_POINTS"
	DiscountCoupon     BenefitType = "DISCOUNT_COUPON"
	FreeShipping       BenefitType = "FREE_SHIPPING"
	GiftCard           BenefitType = "GIFT_CARD"
	ReferralBonus      BenefitType = "REFERRAL_BONUS"
	SeasonalOffer      BenefitType = "SEASONAL_OFFER"
	FirstPurchaseBonus BenefitType = "FIRST_PURCHASE_BONUS"
)

var (
	defaultRate = decimal.RequireFromString("0.05")

	rates = map[BenefitType]decimal.Decimal{
		Cashback:           decimal.RequireFromString("0.05"),
		LoyaltyPoints:      decimal.RequireFromString("0.10"),
		DiscountCoupon:     decimal.RequireFromString("0.15"),
		FreeShipping:       decimal.RequireFromString("0.08"),
		GiftCard:           decimal.RequireFromString("0.12"),
		ReferralBonus:      decimal.RequireFromString("0.20"),
		SeasonalOffer:      decimal.RequireFromString("0.18"),
		FirstPurchaseBonus: decimal.RequireFromString("0.25"),
	}
)

func BenefitTypes() []BenefitType {
	return []BenefitType{Cashback, LoyaltyPoints, DiscountCoupon, FreeShipping, GiftCard, ReferralBonus, SeasonalOffer, FirstPurchaseBonus}
}

// ParseBenefitType maps an empty string to Cashback.
func ParseBenefitType(s string) (BenefitType, error) {
	if s == "" {
		return Cashback, nil
	}
	for _, t := range BenefitTypes() {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", apperr.Validation("unknown benefit type %q", s)
}

func Rate(t BenefitType) decimal.Decimal {
	if r, ok := rates[t]; ok {
		return r
	}
	return defaultRate
}

// Calculate applies the type's rate to the order total, rounded to cents
// half-up.
func Calculate(total money.Amount, t BenefitType) money.Amount {
	return total.MulRate(Rate(t))
}

type EstimationStatus string

const (
	StatusPending    EstimationStatus = "PENDING"
	StatusCalculated EstimationStatus = "CALCULATED"
	StatusApproved   EstimationStatus = "APPROVED"
	StatusRejected   EstimationStatus = "REJECTED"
	StatusExpired    EstimationStatus = "EXPIRED"
)

var statuses = []EstimationStatus{StatusPending, StatusCalculated, StatusApproved, StatusRejected, StatusExpired}

func ParseStatus(s string) (EstimationStatus, error) {
	for _, st := range statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", apperr.Validation("unknown estimation status %q", s)
}

type Estimation struct {
	ID                     int64            `json:"id"`
	OrderID                int64            `json:"orderId"`
	CustomerID             string           `json:"customerId"`
	OrderTotalAmount       money.Amount     `json:"orderTotalAmount"`
	EstimatedBenefitAmount money.Amount     `json:"estimatedBenefitAmount"`
	BenefitType            BenefitType      `json:"benefitType"`
	Status                 EstimationStatus `json:"status"`
	CalculationDetails     string           `json:"calculationDetails"`
	EstimationDate         time.Time        `json:"estimationDate"`
	CreatedAt              time.Time        `json:"createdAt"`
	UpdatedAt              time.Time        `json:"updatedAt"`
}

func Details(total money.Amount, t BenefitType, benefit money.Amount, items int, customer string) string {
	return fmt.Sprintf("Order Total: $%s, Benefit Type: %s, Calculated Benefit: $%s, Order Items: %d, Customer: %s",
		total, t, benefit, items, customer)
}

// Filter narrows List. Zero fields do not filter.
type Filter struct {
	CustomerID  string
	OrderID     int64
	BenefitType BenefitType
	Status      EstimationStatus
}

func (f Filter) Matches(e Estimation) bool {
	return (f.CustomerID == "" || e.CustomerID == f.CustomerID) &&
		(f.OrderID == 0 || e.OrderID == f.OrderID) &&
		(f.BenefitType == "" || e.BenefitType == f.BenefitType) &&
		(f.Status == "" || e.Status == f.Status)
}
