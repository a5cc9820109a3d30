package template

// Shared pattern fragments for the built-in template set. Dates cover the
// formats the validator knows how to parse; decimals tolerate a leading
// currency symbol and thousands separators, which extraction strips later.
const (
	datePat    = `(\d{1,2}[/-]\d{1,2}[/-]\d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}\s+[A-Za-z]+\s+\d{4}|\d{8})`
	decimalPat = `\$?\s*([-+]?[0-9][0-9,]*(?:\.[0-9]+)?)`
	codePat    = `([A-Z0-9]{3,9})\b`
	percentPat = `([0-9]*\.?[0-9]+)\s*%?`
)

// Builtins returns fresh, uncompiled copies of the default template set. The
// set covers the announcement layouts handled out of the box; administrators
// extend or override it with TOML definitions in the templates directory.
func Builtins() []Template {
	return []Template{
		{
			Name:     "vanguard_au",
			TypeTag:  TagEstimated,
			Priority: 20,
			Rules:    []string{"derived_total"},
			Fields: []FieldSpec{
				{Name: "asset_id", Pattern: `(?i)(?:asx|apir)\s*code\s*:?\s*` + codePat, Type: TypeString, Required: true},
				{Name: "ex_date", Pattern: `(?i)ex[\s-]*(?:distribution\s+)?date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "pay_date", Pattern: `(?i)pay(?:ment)?\s*date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "DOM_INC", Pattern: `(?i)domestic\s+income\s*:?\s*` + decimalPat, Type: TypeDecimal, Required: true},
				{Name: "FOR_INC", Pattern: `(?i)foreign\s+income\s*:?\s*` + decimalPat, Type: TypeDecimal, Required: true},
				{Name: "DOM_DID", Pattern: `(?i)domestic\s+dividends?\s*:?\s*` + decimalPat, Type: TypeDecimal, Required: true},
				{Name: "TOTAL", Pattern: `(?i)total\s+distribution\s*:?\s*` + decimalPat, Type: TypeDecimal},
			},
		},
		{
			// NZ-domiciled Vanguard funds report in AUD; the conversion rule
			// restates the rates in the client's working currency when a
			// matching AUD/NZD rate is configured.
			Name:     "vanguard_nz",
			TypeTag:  TagEstimated,
			Priority: 15,
			Rules:    []string{"derived_total", "currency_convert"},
			Fields: []FieldSpec{
				{Name: "asset_id", Pattern: `(?i)(?:nzx|asx|apir)\s*code\s*:?\s*` + codePat, Type: TypeString, Required: true},
				{Name: "ex_date", Pattern: `(?i)ex[\s-]*(?:distribution\s+)?date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "pay_date", Pattern: `(?i)pay(?:ment)?\s*date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "DOM_INC", Pattern: `(?i)domestic\s+income\s*:?\s*` + decimalPat, Type: TypeCurrency, Required: true, Currency: "AUD"},
				{Name: "FOR_INC", Pattern: `(?i)foreign\s+income\s*:?\s*` + decimalPat, Type: TypeCurrency, Required: true, Currency: "AUD"},
				{Name: "DOM_DID", Pattern: `(?i)domestic\s+dividends?\s*:?\s*` + decimalPat, Type: TypeCurrency, Required: true, Currency: "AUD"},
				{Name: "NZ_SUP_DIV", Pattern: `(?i)(?:nz\s+)?supplementary\s+dividends?\s*:?\s*` + decimalPat, Type: TypeCurrency, Currency: "NZD"},
				{Name: "TOTAL", Pattern: `(?i)total\s+distribution\s*:?\s*` + decimalPat, Type: TypeCurrency, Currency: "AUD"},
			},
		},
		{
			Name:     "asx_mit_notice",
			TypeTag:  TagEstimated,
			Priority: 10,
			Rules:    []string{"tax_rate_default"},
			Fields: []FieldSpec{
				{Name: "asset_id", Pattern: `(?i)asx\s*code\s*:?\s*` + codePat, Type: TypeString, Required: true},
				{Name: "ex_date", Pattern: `(?i)ex[\s-]*date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "pay_date", Pattern: `(?i)pay(?:ment)?\s*date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "record_date", Pattern: `(?i)record\s*date\s*:?\s*` + datePat, Type: TypeDate},
				{Name: "tax_rate", Pattern: `(?i)(?:withholding\s+)?tax\s*rate\s*:?\s*` + percentPat, Type: TypeDecimal},
				{Name: "total", Pattern: `(?i)total\s+distribution\s*:?\s*` + decimalPat, Type: TypeDecimal},
			},
		},
		{
			Name:     "asx_dividend",
			TypeTag:  TagEstimated,
			Priority: 10,
			Rules:    []string{"tax_rate_default"},
			Fields: []FieldSpec{
				{Name: "asset_id", Pattern: `(?i)asx\s*code\s*:?\s*` + codePat, Type: TypeString, Required: true},
				{Name: "ex_date", Pattern: `(?i)ex[\s-]*(?:dividend\s+)?date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "pay_date", Pattern: `(?i)pay(?:ment)?\s*date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "dividend_rate", Pattern: `(?i)dividend\s*(?:rate|amount)\s*:?\s*` + decimalPat, Type: TypeDecimal, Required: true},
				{Name: "franking", Pattern: `(?i)frank(?:ed|ing)\s*(?:percentage|credits?)?\s*:?\s*` + percentPat, Type: TypeDecimal},
			},
		},
		{
			Name:     "perpetual",
			TypeTag:  TagEstimated,
			Priority: 10,
			Rules:    []string{"tax_rate_default", "currency_convert"},
			Fields: []FieldSpec{
				{Name: "asset_id", Pattern: `(?i)(?:asx|fund)\s*code\s*:?\s*` + codePat, Type: TypeString, Required: true},
				{Name: "ex_date", Pattern: `(?i)ex[\s-]*date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "pay_date", Pattern: `(?i)pay(?:ment)?\s*date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "distribution_rate", Pattern: `(?i)distribution\s*(?:rate|amount)\s*:?\s*` + decimalPat, Type: TypeCurrency, Required: true, Currency: "AUD"},
				{Name: "foreign_income", Pattern: `(?i)foreign\s+income\s*\(usd\)\s*:?\s*` + decimalPat, Type: TypeCurrency, Currency: "USD"},
				{Name: "tax_rate", Pattern: `(?i)tax\s*rate\s*:?\s*` + percentPat, Type: TypeDecimal},
			},
		},
		{
			Name:     "hi_trust_ur",
			TypeTag:  TagActual,
			Priority: 30,
			Rules:    []string{"tax_rate_default"},
			Fields: []FieldSpec{
				{Name: "asset_id", Pattern: `(?i)(?:asx|asset)\s*(?:code|id)\s*:?\s*` + codePat, Type: TypeString, Required: true},
				{Name: "ex_date", Pattern: `(?i)ex[\s-]*date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "pay_date", Pattern: `(?i)pay(?:ment)?\s*date\s*:?\s*` + datePat, Type: TypeDate, Required: true},
				{Name: "unit_rate", Pattern: `(?i)unit\s*rate\s*:?\s*` + decimalPat, Type: TypeDecimal, Required: true},
				{Name: "tax_rate", Pattern: `(?i)tax\s*rate\s*:?\s*` + percentPat, Type: TypeDecimal},
			},
		},
	}
}
