// Package domain models the "Ask a Manager" salary survey responses and the
// cleaning rules applied before they are modeled in Colombian pesos.
//
// # Data Source
//
// Responses are exported from a public Google Sheet as CSV. Each column header
// is the full text of the survey question; [ColumnRenames] maps those questions
// to short identifiers. If the form changes a question's wording the column is
// left with its original header and the run logs the missing key.
//
// # Survey Data Conventions
//
// Timestamp format:
//
//	"M/D/YYYY H:MM:SS" as exported by Sheets, e.g. "4/27/2021 11:02:10".
//	Values that match no known layout become null.
//
// Salary encoding (free text, inconsistent):
//
//	"95,000", "$1,200", "80" and "N/A" all occur.
//	Separators and "$" are stripped; "", "na", "n/a" and "none" are null.
//	Heuristic: values below 1000 are assumed to be entered in thousands and
//	are multiplied by 1000 ("80" -> 80000). Genuinely low annual salaries are
//	misclassified by this rule; it is kept as an accepted approximation.
//
// Bonus:
//
//	Missing values are coerced to 0. Present values are kept as entered; only
//	the conversion step parses them, and no rescale is applied.
//
// Currency:
//
//	Trimmed and upper-cased. "OTHER" rows are dropped. Compound answers such
//	as "AUD/NZD" are kept and converted with the mean of both factors.
//
// # Currency Conversion
//
// Rates are requested once per run relative to USD. One unit of currency X is
// worth usd_to_cop / rate(X) pesos. When the rate service has no COP entry the
// [DefaultFallbackRate] is used instead and a warning is logged.
//
// # Geography
//
// Country and city answers are folded to lower case and looked up in
// [CountryAliases] and [CityAliases]. Unmapped values are title-cased, except
// short all-caps city answers ("ATL") which are preserved. "remote" is not a
// city and becomes null.
package domain
