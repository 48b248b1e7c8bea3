package document

import (
	"regexp"
	"strings"
)

// CSTs whose base is taxed and therefore carry the ICMS group.
var taxedCSTs = map[string]struct{}{
	"00": {}, "10": {}, "20": {}, "51": {}, "70": {}, "90": {},
}

// Simplified-regime CSOSNs that still owe the interstate differential.
var difalCSOSNs = map[string]struct{}{
	"101": {}, "102": {}, "201": {}, "202": {}, "900": {},
}

// cstIsTaxed reports whether the code denotes a taxed ICMS base.
func cstIsTaxed(code string) bool {
	_, ok := taxedCSTs[strings.TrimSpace(code)]
	return ok
}

// codeOwesDifal reports whether the code participates in the interstate
// differential, for either regime.
func codeOwesDifal(code string) bool {
	code = strings.TrimSpace(code)
	if cstIsTaxed(code) {
		return true
	}
	_, ok := difalCSOSNs[code]
	return ok
}

// CST (2 digits) to CSOSN (3 digits) substitution for simplified-regime
// emitters. The authority rejects CSTs when the emitter declares CRT=1.
var cstToCSOSN = map[string]string{
	"00": "102",
	"10": "102",
	"20": "102",
	"51": "102",
	"70": "102",
	"90": "102",
	"40": "400",
	"41": "400",
	"60": "400",
	"50": "500",
}

var threeDigits = regexp.MustCompile(`^\d{3}$`)
var twoDigits = regexp.MustCompile(`^\d{2}$`)

// SubstituteCSOSN maps a CST to the simplified-regime CSOSN. Codes that are
// already CSOSN pass through; unknown CSTs default to 102.
func SubstituteCSOSN(code string) string {
	code = strings.TrimSpace(code)
	if threeDigits.MatchString(code) {
		return code
	}
	if csosn, ok := cstToCSOSN[code]; ok {
		return csosn
	}
	return "102"
}

var situationPrefix = regexp.MustCompile(`^(\d{2,3})\s*-`)
var bareSituation = regexp.MustCompile(`^\d{2,3}$`)

// ExtractSituationCode pulls the numeric code out of a stored situation
// value, accepting both "00 - Description" and bare "00"/"102" forms.
// Returns empty when the value carries no recognizable code.
func ExtractSituationCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m := situationPrefix.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if bareSituation.MatchString(raw) {
		return raw
	}
	return ""
}
