package normalize

import (
	"strings"
)

// legalSuffixes are trailing company-name tokens ignored during comparison,
// written after punctuation removal (so "L.L.C." appears as "LLC").
var legalSuffixes = map[string]struct{}{
	"LLC": {}, "INC": {}, "INCORPORATED": {}, "CORP": {}, "CORPORATION": {},
	"LTD": {}, "LIMITED": {}, "LP": {}, "LLP": {}, "PC": {}, "PA": {},
	"CO": {}, "COMPANY": {}, "PLC": {}, "NA": {}, "DBA": {}, "PLLC": {},
	"GMBH": {}, "AG": {}, "SA": {}, "BV": {},
}

var companyPunct = strings.NewReplacer(
	",", " ",
	".", "",
	"'", "",
	"\"", "",
	"/", "",
	"&", " AND ",
	"-", " ",
)

// CompanyName standardizes a company name for matching: upper-case,
// punctuation removed, "&" spelled out, trailing legal suffixes dropped and
// whitespace collapsed. A name consisting only of a suffix is kept.
func CompanyName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	tokens := strings.Fields(companyPunct.Replace(strings.ToUpper(name)))
	for len(tokens) > 1 {
		if _, ok := legalSuffixes[tokens[len(tokens)-1]]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}
