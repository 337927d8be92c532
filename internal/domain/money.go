package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Валюты без дробной части (ISO 4217 minor unit = 0).
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "ISK": {}, "JPY": {}, "KMF": {}, "KRW": {},
	"PYG": {}, "RWF": {}, "UGX": {}, "UYI": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// Валюты с тремя знаками после запятой.
var threeDecimalCurrencies = map[string]struct{}{
	"BHD": {}, "IQD": {}, "JOD": {}, "KWD": {}, "LYD": {}, "OMR": {}, "TND": {},
}

var hundred = decimal.NewFromInt(100)

// CurrencyPrecision возвращает число знаков после запятой для валюты.
func CurrencyPrecision(currency string) int32 {
	code := strings.ToUpper(currency)
	if _, ok := zeroDecimalCurrencies[code]; ok {
		return 0
	}
	if _, ok := threeDecimalCurrencies[code]; ok {
		return 3
	}
	return 2
}

// QuantizePrice округляет сумму до точности валюты (half-up).
func QuantizePrice(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(CurrencyPrecision(currency))
}

// Money — денежная сумма в конкретной валюте.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// NewMoney собирает Money из строкового значения; удобно в тестах и конфигурации.
func NewMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// MustMoney аналогичен NewMoney, но паникует на некорректном значении.
func MustMoney(amount, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney возвращает нулевую сумму в валюте.
func ZeroMoney(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add складывает суммы одной валюты.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub вычитает сумму той же валюты. Отрицательный результат не обрезается.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Mul умножает сумму на целое количество.
func (m Money) Mul(qty int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(qty))), Currency: m.Currency}
}

// Min возвращает меньшую из двух сумм.
func (m Money) Min(other Money) Money {
	if other.Amount.LessThan(m.Amount) {
		return Money{Amount: other.Amount, Currency: m.Currency}
	}
	return m
}

// Quantize округляет сумму до точности своей валюты.
func (m Money) Quantize() Money {
	return Money{Amount: QuantizePrice(m.Amount, m.Currency), Currency: m.Currency}
}

// IsZero проверяет, что сумма равна нулю.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// IsNegative проверяет, что сумма меньше нуля.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// Equal сравнивает суммы и валюты.
func (m Money) Equal(other Money) bool {
	return strings.EqualFold(m.Currency, other.Currency) && m.Amount.Equal(other.Amount)
}

func (m Money) String() string {
	return m.Amount.StringFixed(CurrencyPrecision(m.Currency)) + " " + m.Currency
}

func (m Money) sameCurrency(other Money) error {
	if !strings.EqualFold(m.Currency, other.Currency) {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}

// TaxedMoney хранит пару net/gross для одной суммы.
type TaxedMoney struct {
	Net   Money
	Gross Money
}

// ZeroTaxedMoney возвращает нулевую пару net/gross.
func ZeroTaxedMoney(currency string) TaxedMoney {
	return TaxedMoney{Net: ZeroMoney(currency), Gross: ZeroMoney(currency)}
}

// Add складывает две пары net/gross.
func (t TaxedMoney) Add(other TaxedMoney) (TaxedMoney, error) {
	net, err := t.Net.Add(other.Net)
	if err != nil {
		return TaxedMoney{}, err
	}
	gross, err := t.Gross.Add(other.Gross)
	if err != nil {
		return TaxedMoney{}, err
	}
	return TaxedMoney{Net: net, Gross: gross}, nil
}

// Tax возвращает сумму налога (gross - net).
func (t TaxedMoney) Tax() decimal.Decimal {
	return t.Gross.Amount.Sub(t.Net.Amount)
}

// Equal сравнивает обе компоненты.
func (t TaxedMoney) Equal(other TaxedMoney) bool {
	return t.Net.Equal(other.Net) && t.Gross.Equal(other.Gross)
}

// PercentOf возвращает value% от amount без округления.
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}
