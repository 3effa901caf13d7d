package expense

import (
	"strings"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	"github.com/frahmantamala/budget-analytics/internal/core/common/validation"
	expenseDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/expense"
	"github.com/shopspring/decimal"
)

const (
	PaymentCash          = "cash"
	PaymentDebitCard     = "debit_card"
	PaymentCreditCard    = "credit_card"
	PaymentBankTransfer  = "bank_transfer"
	PaymentDigitalWallet = "digital_wallet"
	PaymentCheck         = "check"
	PaymentOther         = "other"
)

var PaymentMethods = []string{
	PaymentCash, PaymentDebitCard, PaymentCreditCard, PaymentBankTransfer,
	PaymentDigitalWallet, PaymentCheck, PaymentOther,
}

const maxDescriptionLength = 200

type Expense struct {
	ID            int64
	UserID        int64
	Amount        decimal.Decimal
	Category      string
	Description   string
	Date          time.Time
	PaymentMethod string
	Notes         *string
	Location      *string
	Tags          []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewExpense(userID int64, dto CreateExpenseDTO) (*Expense, error) {
	e := &Expense{
		UserID:        userID,
		Amount:        dto.Amount,
		Category:      category.Normalize(dto.Category),
		Description:   strings.TrimSpace(dto.Description),
		PaymentMethod: dto.PaymentMethod,
		Notes:         dto.Notes,
		Location:      dto.Location,
		Tags:          dto.Tags,
	}
	if e.PaymentMethod == "" {
		e.PaymentMethod = PaymentCash
	}
	if dto.Date != nil {
		e.Date = dto.Date.Time
	}

	v := validation.NewValidator()
	v.Field("amount", e.Amount).Positive(internal.ErrCodeInvalidAmount).MaxScale(2, internal.ErrCodeInvalidAmount)
	v.Field("category", e.Category).Required().OneOf(category.Names(), internal.ErrCodeInvalidCategory)
	v.Field("description", e.Description).Required().MaxLength(maxDescriptionLength)
	v.Field("date", e.Date).Required()
	v.Field("payment_method", e.PaymentMethod).OneOf(PaymentMethods, internal.ErrCodeInvalidPayment)
	if err := v.Validate(); err != nil {
		return nil, err
	}
	e.Date = date.New(e.Date).Time
	return e, nil
}

// Apply validates the whitelisted fields before mutating the expense.
func (e *Expense) Apply(dto UpdateExpenseDTO) error {
	next := *e

	v := validation.NewValidator()
	if dto.Amount != nil {
		next.Amount = *dto.Amount
		v.Field("amount", next.Amount).Positive(internal.ErrCodeInvalidAmount).MaxScale(2, internal.ErrCodeInvalidAmount)
	}
	if dto.Category != nil {
		next.Category = category.Normalize(*dto.Category)
		v.Field("category", next.Category).OneOf(category.Names(), internal.ErrCodeInvalidCategory)
	}
	if dto.Description != nil {
		next.Description = strings.TrimSpace(*dto.Description)
		v.Field("description", next.Description).Required().MaxLength(maxDescriptionLength)
	}
	if dto.Date != nil {
		next.Date = date.New(dto.Date.Time).Time
	}
	if dto.PaymentMethod != nil {
		next.PaymentMethod = *dto.PaymentMethod
		v.Field("payment_method", next.PaymentMethod).OneOf(PaymentMethods, internal.ErrCodeInvalidPayment)
	}
	if dto.Notes != nil {
		next.Notes = dto.Notes
	}
	if dto.Location != nil {
		next.Location = dto.Location
	}
	if dto.Tags != nil {
		next.Tags = *dto.Tags
	}
	if err := v.Validate(); err != nil {
		return err
	}

	*e = next
	return nil
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:            e.ID,
		UserID:        e.UserID,
		Amount:        e.Amount,
		Category:      e.Category,
		Description:   e.Description,
		ExpenseDate:   e.Date,
		PaymentMethod: e.PaymentMethod,
		Notes:         e.Notes,
		Location:      e.Location,
		Tags:          e.Tags,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	return &Expense{
		ID:            e.ID,
		UserID:        e.UserID,
		Amount:        e.Amount,
		Category:      e.Category,
		Description:   e.Description,
		Date:          date.New(e.ExpenseDate).Time,
		PaymentMethod: e.PaymentMethod,
		Notes:         e.Notes,
		Location:      e.Location,
		Tags:          e.Tags,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
