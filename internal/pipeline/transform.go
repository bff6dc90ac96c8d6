package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/salary-survey-etl/internal/apperr"
	"github.com/couchcryptid/salary-survey-etl/internal/domain"
)

// Conversion summarizes the outcome of the currency conversion stage.
type Conversion struct {
	USDToTarget  float64
	FallbackUsed bool
	RateDate     string
	Factors      map[string]domain.Factor
	Unresolved   []string
}

// SurveyTransformer applies the survey cleaning, conversion, and geographic
// normalization steps to a response table in place.
type SurveyTransformer struct {
	rates        domain.RateProvider
	fallbackRate float64
	logger       *slog.Logger
}

// NewTransformer creates a SurveyTransformer. A fallbackRate <= 0 selects
// domain.DefaultFallbackRate.
func NewTransformer(rates domain.RateProvider, fallbackRate float64, logger *slog.Logger) *SurveyTransformer {
	if fallbackRate <= 0 {
		fallbackRate = domain.DefaultFallbackRate
	}
	return &SurveyTransformer{
		rates:        rates,
		fallbackRate: fallbackRate,
		logger:       logger,
	}
}

// Rename maps the long-form survey questions to short column names. Questions
// missing from the table are logged and left alone.
func (s *SurveyTransformer) Rename(t *domain.Table) []string {
	missing := t.Rename(domain.ColumnRenames)
	for _, q := range missing {
		s.logger.Warn("survey column not found, left unrenamed", "question", q, "target", domain.ColumnRenames[q])
	}
	return missing
}

// Clean parses timestamps, salaries, bonuses, and currencies, then drops the
// rows whose currency is OTHER. It returns the number of rows dropped.
func (s *SurveyTransformer) Clean(t *domain.Table) int {
	t.Apply(domain.ColDateCreated, domain.ParseTimestamp)
	t.Apply(domain.ColSalary, domain.CleanSalary)
	t.Apply(domain.ColBonus, domain.CleanBonus)
	if !t.Apply(domain.ColCurrency, domain.NormalizeCurrency) {
		return 0
	}
	return domain.DropOtherCurrency(t)
}

// Convert fetches rates for the currencies present and adds fx_to_cop and the
// derived compensation columns. When the rate service fails the table is left
// untouched and a stage-skipped error is returned.
func (s *SurveyTransformer) Convert(ctx context.Context, t *domain.Table) (Conversion, error) {
	codes := t.Distinct(domain.ColCurrency)
	symbols := domain.CurrencySymbols(codes)

	rt, err := s.rates.Latest(ctx, domain.BaseCurrency, symbols)
	if err != nil {
		return Conversion{}, apperr.StageSkipped("fetch exchange rates", err)
	}

	usd, fallback := domain.USDToTarget(rt.Rates, s.fallbackRate)
	if fallback {
		s.logger.Warn("COP rate missing from rate service, using fallback", "usd_to_cop", usd)
	}

	factors := domain.ResolveFactors(codes, usd, rt.Rates)
	for _, c := range codes {
		f := factors[c]
		if f.Err != nil && !errors.Is(f.Err, domain.ErrNoRate) {
			s.logger.Warn("currency factor failed", "currency", c, "error", f.Err)
		}
	}

	domain.ApplyConversion(t, factors)

	conv := Conversion{
		USDToTarget:  usd,
		FallbackUsed: fallback,
		RateDate:     rt.Date,
		Factors:      factors,
		Unresolved:   domain.UnresolvedCurrencies(t),
	}
	if len(conv.Unresolved) > 0 {
		s.logger.Warn("no rate found for currencies", "currencies", conv.Unresolved)
	}
	s.logger.Info("currency conversion complete", "usd_to_cop", usd, "rate_date", rt.Date, "currencies", len(codes))
	return conv, nil
}

// NormalizeGeo canonicalizes the country and city columns.
func (s *SurveyTransformer) NormalizeGeo(t *domain.Table) {
	t.Apply(domain.ColCountry, domain.NormalizeCountryValue)
	t.Apply(domain.ColCity, domain.NormalizeCityValue)
}
