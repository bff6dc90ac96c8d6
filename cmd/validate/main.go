// Command validate checks a modeled survey CSV for the integrity rules the
// pipeline guarantees: no OTHER currency rows, positive conversion factors,
// derived compensation columns consistent with their operands, and no
// non-geographic city values.
//
// Usage:
//
//	go run ./cmd/validate -csv ask_a_manager_modelado.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/salary-survey-etl/internal/adapter/sheet"
	"github.com/couchcryptid/salary-survey-etl/internal/domain"
)

// relTolerance bounds the difference between total and the sum of its parts.
const relTolerance = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	notes  []string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("csv", "ask_a_manager_modelado.csv", "path to the modeled CSV")
	expectRows := flag.Int("expect-rows", -1, "expected data row count (-1 to skip)")
	flag.Parse()

	if code := run(*path, *expectRows); code != 0 {
		os.Exit(code)
	}
}

func run(path string, expectRows int) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open %s: %v\n", path, err)
		return 1
	}
	defer f.Close()

	t, err := sheet.ReadTable(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := validate(t, expectRows)

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
		for _, n := range p.notes {
			fmt.Printf("    note: %s\n", n)
		}
	}

	fmt.Println()
	fmt.Printf("Rows: %d, columns: %d\n", t.Len(), len(t.Columns))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(t *domain.Table, expectRows int) []*phase {
	return []*phase{
		validateShape(t, expectRows),
		validateCurrency(t),
		validateFactors(t),
		validateDerived(t),
		validateGeography(t),
	}
}

// line is the 1-based CSV line of a data row, counting the header.
func line(r *domain.Row) int { return r.Pos + 2 }

func validateShape(t *domain.Table, expectRows int) *phase {
	p := &phase{name: "Phase 1: Shape"}
	for _, col := range []string{domain.ColDateCreated, domain.ColSalary, domain.ColBonus, domain.ColCurrency, domain.ColCountry, domain.ColCity} {
		if !t.HasColumn(col) {
			p.errorf("missing column %q", col)
		}
	}
	if expectRows >= 0 && t.Len() != expectRows {
		p.errorf("row count: got %d, want %d", t.Len(), expectRows)
	}
	return p
}

func validateCurrency(t *domain.Table) *phase {
	p := &phase{name: "Phase 2: Currency normalization"}
	for _, r := range t.Rows {
		c := r.Get(domain.ColCurrency).Text()
		switch {
		case strings.EqualFold(strings.TrimSpace(c), domain.CurrencyOther):
			p.errorf("line %d: currency OTHER should have been dropped", line(r))
		case c != strings.ToUpper(strings.TrimSpace(c)):
			p.errorf("line %d: currency %q is not trimmed upper case", line(r), c)
		}
	}
	return p
}

func validateFactors(t *domain.Table) *phase {
	p := &phase{name: "Phase 3: Conversion factors"}
	if !t.HasColumn(domain.ColFXToCOP) {
		p.notef("%s absent: conversion stage was skipped", domain.ColFXToCOP)
		return p
	}

	seen := make(map[string]string)
	for _, r := range t.Rows {
		c := r.Get(domain.ColCurrency).Text()
		raw := r.Get(domain.ColFXToCOP).Text()
		if prev, ok := seen[c]; ok && prev != raw {
			p.errorf("line %d: currency %s has factor %q, earlier rows have %q", line(r), c, raw, prev)
		}
		seen[c] = raw
		if raw == "" {
			continue
		}
		fx, err := strconv.ParseFloat(raw, 64)
		if err != nil || fx <= 0 || math.IsInf(fx, 0) || math.IsNaN(fx) {
			p.errorf("line %d: fx_to_cop %q is not a positive finite number", line(r), raw)
		}
	}
	return p
}

func validateDerived(t *domain.Table) *phase {
	p := &phase{name: "Phase 4: Derived compensation"}
	if !t.HasColumn(domain.ColFXToCOP) {
		for _, col := range []string{domain.ColSalaryCOP, domain.ColBonusCOP, domain.ColTotalCOP} {
			if t.HasColumn(col) {
				p.errorf("column %s present without %s", col, domain.ColFXToCOP)
			}
		}
		return p
	}

	for _, r := range t.Rows {
		fx := r.Get(domain.ColFXToCOP).Text()
		salary := r.Get(domain.ColSalaryCOP).Text()
		bonus := r.Get(domain.ColBonusCOP).Text()
		total := r.Get(domain.ColTotalCOP).Text()

		if fx == "" {
			if salary != "" || bonus != "" || total != "" {
				p.errorf("line %d: derived values present without fx_to_cop", line(r))
			}
			continue
		}
		if (r.Get(domain.ColSalary).Text() == "") != (salary == "") {
			p.errorf("line %d: salario_anual_cop %q inconsistent with salary %q", line(r), salary, r.Get(domain.ColSalary).Text())
		}
		if (salary == "" || bonus == "") != (total == "") {
			p.errorf("line %d: total_compensacion_cop %q should be empty iff an operand is empty", line(r), total)
			continue
		}
		if total == "" {
			continue
		}
		s, err1 := strconv.ParseFloat(salary, 64)
		b, err2 := strconv.ParseFloat(bonus, 64)
		tot, err3 := strconv.ParseFloat(total, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			p.errorf("line %d: derived values are not numeric", line(r))
			continue
		}
		if !closeEnough(tot, s+b) {
			p.errorf("line %d: total %v != salary %v + bonus %v", line(r), tot, s, b)
		}
	}
	return p
}

func validateGeography(t *domain.Table) *phase {
	p := &phase{name: "Phase 5: Geography"}
	for _, r := range t.Rows {
		city := r.Get(domain.ColCity).Text()
		if domain.NonGeographicCities[strings.ToLower(strings.TrimSpace(city))] {
			p.errorf("line %d: city %q should be empty", line(r), city)
		}
		if city == "Washington, Dc" {
			p.errorf("line %d: city %q not patched", line(r), city)
		}
		country := r.Get(domain.ColCountry).Text()
		if country != "" && country != strings.TrimSpace(country) {
			p.errorf("line %d: country %q not trimmed", line(r), country)
		}
	}
	return p
}

func closeEnough(a, b float64) bool {
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= relTolerance*scale || diff <= relTolerance
}
