package service

import (
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/pricing"
)

const (
	maxNameLength  = 200
	maxNotesLength = 1000
	vinLength      = 17
	minVehicleYear = 1900
)

var maxTaxRate = decimal.NewFromInt(100)

// CleanText trims s and collapses every run of whitespace into one space.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizePhone keeps the digits of a phone number and a leading +.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "+" {
		return ""
	}
	return out
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SanitizeNotes escapes markup and bounds the length of free text.
func SanitizeNotes(notes string) string {
	notes = strings.ReplaceAll(notes, "<", "&lt;")
	notes = strings.ReplaceAll(notes, ">", "&gt;")
	notes = strings.ReplaceAll(notes, "\"", "&quot;")
	notes = strings.TrimSpace(notes)

	if len(notes) > maxNotesLength {
		notes = notes[:maxNotesLength]
	}
	return notes
}

// NormalizeCustomer cleans every field in place and checks that the
// customer can be identified by a name or reached by phone or email.
func NormalizeCustomer(in *models.CustomerInput) error {
	in.Name = CleanText(in.Name)
	in.Phone = NormalizePhone(in.Phone)
	in.Email = NormalizeEmail(in.Email)
	in.Address = CleanText(in.Address)
	in.Notes = SanitizeNotes(in.Notes)

	if in.Name == "" && in.Phone == "" && in.Email == "" {
		return apperrors.NewValidationError("name", "name or contact (phone or email) is required")
	}
	if len(in.Name) > maxNameLength {
		return apperrors.NewValidationError("name", "name is too long")
	}
	if in.Email != "" {
		if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
			return apperrors.NewValidationError("email", "email is not a valid address")
		}
	}
	if in.Phone != "" && len(strings.TrimPrefix(in.Phone, "+")) < 7 {
		return apperrors.NewValidationError("phone", "phone number is too short")
	}
	return nil
}

// NormalizeVehicle cleans the input in place. now bounds the model year.
func NormalizeVehicle(in *models.VehicleInput, now time.Time) error {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.Make = CleanText(in.Make)
	in.Model = CleanText(in.Model)
	in.VIN = strings.ToUpper(strings.ReplaceAll(in.VIN, " ", ""))
	in.LicensePlate = strings.ToUpper(CleanText(in.LicensePlate))

	if in.CustomerID == "" {
		return apperrors.NewValidationError("customer_id", "customer is required")
	}
	if in.Make == "" && in.Model == "" {
		return apperrors.NewValidationError("make", "make or model is required")
	}
	if in.Year != nil && (*in.Year < minVehicleYear || *in.Year > now.Year()+1) {
		return apperrors.NewValidationError("year", "year is out of range")
	}
	if in.VIN != "" && len(in.VIN) != vinLength {
		return apperrors.NewValidationError("vin", "VIN must be 17 characters")
	}
	return nil
}

func ValidateTire(in *models.TireInput) error {
	in.Brand = CleanText(in.Brand)
	in.Model = CleanText(in.Model)
	in.Size = strings.ToUpper(CleanText(in.Size))
	in.Description = SanitizeNotes(in.Description)

	switch {
	case in.Brand == "":
		return apperrors.NewValidationError("brand", "brand is required")
	case in.Model == "":
		return apperrors.NewValidationError("model", "model is required")
	case in.Size == "":
		return apperrors.NewValidationError("size", "size is required")
	case in.Quantity < 0:
		return apperrors.NewValidationError("quantity", "quantity cannot be negative")
	case in.Price.IsNegative():
		return apperrors.NewValidationError("price", "price cannot be negative")
	}
	return nil
}

func ValidateService(in *models.ServiceInput) error {
	in.Name = CleanText(in.Name)
	in.Description = SanitizeNotes(in.Description)
	if in.PriceType == "" {
		in.PriceType = pricing.PriceTypeFlat
	}

	switch {
	case in.Name == "":
		return apperrors.NewValidationError("name", "name is required")
	case in.Price.IsNegative():
		return apperrors.NewValidationError("price", "price cannot be negative")
	case !in.PriceType.Valid():
		return apperrors.NewValidationError("price_type", "price type must be flat, per_tire or per_unit")
	}
	return nil
}

func ValidateShopUpdate(req *models.UpdateShopRequest) error {
	if req.Name != nil {
		*req.Name = CleanText(*req.Name)
		if *req.Name == "" {
			return apperrors.NewValidationError("name", "name cannot be empty")
		}
	}
	if req.TaxRate != nil && (req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(maxTaxRate)) {
		return apperrors.NewValidationError("tax_rate", "tax rate must be between 0 and 100")
	}
	if req.Currency != nil {
		*req.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(*req.Currency) != 3 {
			return apperrors.NewValidationError("currency", "currency must be a 3-letter code")
		}
	}
	return nil
}

func ValidateTask(in *models.TaskInput) error {
	in.Title = CleanText(in.Title)
	in.Description = SanitizeNotes(in.Description)
	in.AssignedTo = CleanText(in.AssignedTo)
	in.DueDate = strings.TrimSpace(in.DueDate)
	if in.Status == "" {
		in.Status = models.TaskStatusOpen
	}

	if in.Title == "" {
		return apperrors.NewValidationError("title", "title is required")
	}
	if in.Status != models.TaskStatusOpen && in.Status != models.TaskStatusDone {
		return apperrors.NewValidationError("status", "status must be open or done")
	}
	if in.DueDate != "" {
		if _, err := time.Parse("2006-01-02", in.DueDate); err != nil {
			return apperrors.NewValidationError("due_date", "due date must be YYYY-MM-DD")
		}
	}
	return nil
}

// ValidateSelections checks line quantities of an order or quote.
// Service quantities are checked once the price type is known.
func ValidateSelections(tires []models.TireSelection, services []models.ServiceSelection) error {
	for _, t := range tires {
		if t.TireID == "" {
			return apperrors.NewValidationError("tires", "tire id is required")
		}
		if t.Quantity < 1 {
			return apperrors.NewValidationError("tires", "tire quantity must be at least 1")
		}
	}
	for _, s := range services {
		if s.ServiceID == "" {
			return apperrors.NewValidationError("services", "service id is required")
		}
		if s.Quantity < 0 {
			return apperrors.NewValidationError("services", "service quantity cannot be negative")
		}
	}
	return nil
}

func ValidateOrderFilter(f *models.OrderFilter) error {
	if f.Status != "" && !f.Status.Valid() {
		return apperrors.NewValidationError("status", "invalid order status")
	}
	if f.CustomerID != "" {
		if _, err := uuid.Parse(f.CustomerID); err != nil {
			return apperrors.NewValidationError("customer_id", "must be a UUID")
		}
	}
	for field, v := range map[string]string{"from": f.From, "to": f.To} {
		if v == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return apperrors.NewValidationError(field, "must be YYYY-MM-DD")
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return apperrors.NewValidationError("from", "from cannot be after to")
	}
	f.Page.Normalize()
	return nil
}
