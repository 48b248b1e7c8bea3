// Package rates holds the official ICMS rate tables used by the interstate
// tax differential. Interstate rates follow Senate Resolution 22/1989 plus
// Resolution 13/2012 (4% for imported goods); intrastate rates track each
// state's current general rate.
package rates

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Origin codes that denote imported merchandise and force the 4% interstate rate.
var importedOrigins = map[string]struct{}{
	"1": {}, "2": {}, "3": {}, "8": {},
}

// South/Southeast states except ES, origin side of the 7% rule.
var southSoutheastExceptES = map[string]struct{}{
	"MG": {}, "SP": {}, "RJ": {}, "PR": {}, "RS": {}, "SC": {},
}

// North/Northeast/Centre-West plus ES, destination side of the 7% rule.
var northNortheastCentreWestES = map[string]struct{}{
	"AC": {}, "AL": {}, "AM": {}, "AP": {}, "BA": {}, "CE": {}, "DF": {},
	"ES": {}, "GO": {}, "MA": {}, "MT": {}, "MS": {}, "PA": {}, "PB": {},
	"PE": {}, "PI": {}, "RN": {}, "RO": {}, "RR": {}, "SE": {}, "TO": {},
}

var intrastateByState = map[string]decimal.Decimal{
	"AC": decimal.NewFromInt(18), "AL": decimal.NewFromInt(18), "AM": decimal.NewFromInt(18),
	"AP": decimal.NewFromInt(18), "BA": decimal.NewFromInt(19), "CE": decimal.NewFromInt(18),
	"DF": decimal.NewFromInt(18), "ES": decimal.NewFromInt(17), "GO": decimal.NewFromInt(17),
	"MA": decimal.NewFromInt(18), "MG": decimal.NewFromInt(18), "MS": decimal.NewFromInt(17),
	"MT": decimal.NewFromInt(17), "PA": decimal.NewFromInt(17), "PB": decimal.NewFromInt(18),
	"PE": decimal.NewFromInt(18), "PI": decimal.NewFromInt(18), "PR": decimal.NewFromInt(18),
	"RJ": decimal.NewFromInt(20), "RN": decimal.NewFromInt(18), "RO": decimal.RequireFromString("17.5"),
	"RR": decimal.NewFromInt(17), "RS": decimal.NewFromInt(18), "SC": decimal.NewFromInt(17),
	"SE": decimal.NewFromInt(18), "SP": decimal.NewFromInt(18), "TO": decimal.NewFromInt(18),
}

func normalizeState(uf string) string {
	return strings.ToUpper(strings.TrimSpace(uf))
}

// Interstate returns the official interstate ICMS rate between two states.
// Imported merchandise (origin codes 1, 2, 3, 8) is always 4%. Shipments from
// the South/Southeast (except ES) into the North/Northeast/Centre-West or ES
// are 7%; everything else is 12%. Returns false when either state is invalid.
func Interstate(originState, destinationState, merchandiseOrigin string) (decimal.Decimal, bool) {
	origin := normalizeState(originState)
	destination := normalizeState(destinationState)
	if len(origin) != 2 || len(destination) != 2 {
		return decimal.Decimal{}, false
	}

	if _, imported := importedOrigins[strings.TrimSpace(merchandiseOrigin)]; imported {
		return decimal.NewFromInt(4), true
	}

	_, fromSouth := southSoutheastExceptES[origin]
	_, toNorth := northNortheastCentreWestES[destination]
	if fromSouth && toNorth {
		return decimal.NewFromInt(7), true
	}

	return decimal.NewFromInt(12), true
}

// Intrastate returns the destination state's general internal ICMS rate.
func Intrastate(uf string) (decimal.Decimal, bool) {
	rate, ok := intrastateByState[normalizeState(uf)]
	return rate, ok
}
