package service

import (
	"fmt"

	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/govalues/decimal"
)

// OrderTotal derives the monetary total of a line item sequence:
// sum of quantity*price, rounded to two decimals once at the end.
// Empty items, non-positive quantities and negative prices fail with
// domain.ErrInvalidOrder.
func OrderTotal(items []domain.OrderItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Decimal{}, domain.ErrInvalidOrder
	}

	sum := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 || item.Price.IsNeg() {
			return decimal.Decimal{}, domain.ErrInvalidOrder
		}

		qty, err := decimal.New(item.Quantity, 0)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("math error:%w", err)
		}
		line, err := item.Price.Mul(qty)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("math error:%w", err)
		}
		sum, err = sum.Add(line)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("math error:%w", err)
		}
	}

	return sum.Round(2), nil
}
