package handlers

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"bankcards/internal/core/domain"
	"bankcards/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{16}$`)
	holderNamePattern = regexp.MustCompile(`^[A-Z ]+$`)

	minTransferAmount = decimal.RequireFromString("0.01")
)

func validateCredentials(username, pass string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(username)); n < 3 || n > 50 {
		return domain.ValidationFailed("username must be between 3 and 50 characters")
	}
	if !password.ValidatePassword(pass) {
		return domain.ValidationFailed(fmt.Sprintf("password must be at least %d characters", password.MinLength))
	}
	return nil
}

func validateCardNumber(field, number string) error {
	if !cardNumberPattern.MatchString(number) {
		return domain.ValidationFailed(field + " must be exactly 16 digits")
	}
	return nil
}

func validateCreateCard(req *CreateCardRequest) error {
	if strings.TrimSpace(req.Username) == "" {
		return domain.ValidationFailed("username is required")
	}
	if err := validateCardNumber("cardNumber", req.CardNumber); err != nil {
		return err
	}
	if !holderNamePattern.MatchString(req.CardHolderName) || len(req.CardHolderName) > 100 {
		return domain.ValidationFailed("cardHolderName must contain only uppercase letters and spaces (max 100)")
	}
	if req.ExpirationMonth < 1 || req.ExpirationMonth > 12 {
		return domain.ValidationFailed("expirationMonth must be between 1 and 12")
	}
	if req.ExpirationYear < time.Now().Year() {
		return domain.ValidationFailed("expirationYear must not be in the past")
	}
	if req.InitialBalance != nil && req.InitialBalance.IsNegative() {
		return domain.ValidationFailed("initialBalance must not be negative")
	}
	return nil
}

func validateTransfer(req *TransferRequest) error {
	if err := validateCardNumber("fromCardNumber", req.FromCardNumber); err != nil {
		return err
	}
	if err := validateCardNumber("toCardNumber", req.ToCardNumber); err != nil {
		return err
	}
	if req.Amount == nil {
		return domain.ValidationFailed("amount is required")
	}
	if req.Amount.LessThan(minTransferAmount) {
		return domain.ValidationFailed("amount must be at least 0.01")
	}
	if !req.Amount.Equal(req.Amount.Truncate(2)) {
		return domain.ValidationFailed("amount must have at most 2 decimal places")
	}
	if utf8.RuneCountInString(req.Description) > 255 {
		return domain.ValidationFailed("description must be at most 255 characters")
	}
	return nil
}

func validateReason(reason string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(reason)); n < 10 || n > 500 {
		return domain.ValidationFailed("reason must be between 10 and 500 characters")
	}
	return nil
}

func validateProcess(req *ProcessBlockRequestRequest) error {
	if strings.TrimSpace(req.Decision) == "" {
		return domain.ValidationFailed("decision is required")
	}
	if utf8.RuneCountInString(req.AdminComment) > 500 {
		return domain.ValidationFailed("adminComment must be at most 500 characters")
	}
	return nil
}

// queryDecimal reads an optional decimal query parameter
func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.InvalidParameter(fmt.Sprintf("invalid %s parameter: %s", key, raw))
	}
	return &d, nil
}
