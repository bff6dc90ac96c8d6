package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// BaseCurrency is the currency rates are requested against.
	BaseCurrency = "USD"
	// TargetCurrency is the currency all compensation is modeled in.
	TargetCurrency = "COP"
	// DefaultFallbackRate is the USD->COP rate used when the rate service
	// returns no COP entry.
	DefaultFallbackRate = 3661.0
)

// ErrNoRate marks a currency the rate service did not quote.
var ErrNoRate = errors.New("no rate for currency")

// RateTable is a rate service response: units of each currency per one Base.
type RateTable struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// RateProvider looks up the latest rates of symbols relative to base.
type RateProvider interface {
	Latest(ctx context.Context, base string, symbols []string) (RateTable, error)
}

// Factor is the resolved multiplier from one unit of a currency to the
// target currency. Err is set when the currency could not be resolved.
type Factor struct {
	Rate float64
	Err  error
}

// Resolved reports whether the factor carries a usable rate.
func (f Factor) Resolved() bool { return f.Err == nil }

// Value returns the factor as a table cell, null when unresolved.
func (f Factor) Value() Value {
	if !f.Resolved() {
		return Null()
	}
	return Float(f.Rate)
}

// CurrencySymbols splits compound codes such as "AUD/NZD" and returns the
// sorted union of every individual code.
func CurrencySymbols(codes []string) []string {
	set := make(map[string]bool)
	for _, c := range codes {
		for _, sub := range strings.Split(c, "/") {
			set[sub] = true
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// USDToTarget returns the USD->COP rate from rates, or fallback when the
// entry is missing or not a positive number. The bool reports fallback use.
func USDToTarget(rates map[string]float64, fallback float64) (float64, bool) {
	r, ok := rates[TargetCurrency]
	if !ok || !isPositive(r) {
		return fallback, true
	}
	return r, false
}

// ResolveFactor computes the multiplier for a single currency code.
// Compound codes average the factor of each part; a part without a quote is
// treated as rate 1. Plain codes without a quote return ErrNoRate.
func ResolveFactor(code string, usdToTarget float64, rates map[string]float64) (float64, error) {
	var f float64
	switch {
	case strings.Contains(code, "/"):
		parts := strings.Split(code, "/")
		var sum float64
		for _, p := range parts {
			r, ok := rates[p]
			if !ok {
				r = 1
			}
			if r == 0 {
				return 0, fmt.Errorf("zero rate for %s", p)
			}
			sum += usdToTarget / r
		}
		f = sum / float64(len(parts))
	case code == BaseCurrency:
		f = usdToTarget
	default:
		r, ok := rates[code]
		if !ok || r == 0 {
			return 0, ErrNoRate
		}
		f = usdToTarget / r
	}

	if !isPositive(f) {
		return 0, fmt.Errorf("invalid factor %v", f)
	}
	return f, nil
}

// ResolveFactors computes a factor for every code independently. A failure
// for one code never affects the others.
func ResolveFactors(codes []string, usdToTarget float64, rates map[string]float64) map[string]Factor {
	out := make(map[string]Factor, len(codes))
	for _, c := range codes {
		rate, err := ResolveFactor(c, usdToTarget, rates)
		out[c] = Factor{Rate: rate, Err: err}
	}
	return out
}

// ApplyConversion adds fx_to_cop and the three derived compensation columns.
// Any null operand makes the result null.
func ApplyConversion(t *Table, factors map[string]Factor) {
	t.SetColumn(ColFXToCOP, func(r *Row) Value {
		f, ok := factors[r.Get(ColCurrency).Text()]
		if !ok {
			return Null()
		}
		return f.Value()
	})
	t.SetColumn(ColSalaryCOP, func(r *Row) Value {
		salary, ok1 := r.Get(ColSalary).Num()
		fx, ok2 := r.Get(ColFXToCOP).Num()
		if !ok1 || !ok2 {
			return Null()
		}
		return Float(salary * fx)
	})
	t.SetColumn(ColBonusCOP, func(r *Row) Value {
		bonus, ok1 := BonusAmount(r.Get(ColBonus))
		fx, ok2 := r.Get(ColFXToCOP).Num()
		if !ok1 || !ok2 {
			return Null()
		}
		return Float(bonus * fx)
	})
	t.SetColumn(ColTotalCOP, func(r *Row) Value {
		salary, ok1 := r.Get(ColSalaryCOP).Num()
		bonus, ok2 := r.Get(ColBonusCOP).Num()
		if !ok1 || !ok2 {
			return Null()
		}
		return Float(salary + bonus)
	})
}

// UnresolvedCurrencies lists, in first-seen order, the currencies whose rows
// have no fx_to_cop after conversion.
func UnresolvedCurrencies(t *Table) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		if !r.Get(ColFXToCOP).IsNull() {
			continue
		}
		c := r.Get(ColCurrency).Text()
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// DropOtherCurrency removes rows whose currency is CurrencyOther.
func DropOtherCurrency(t *Table) int {
	return t.Filter(func(r *Row) bool {
		return r.Get(ColCurrency).Text() != CurrencyOther
	})
}

func isPositive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
