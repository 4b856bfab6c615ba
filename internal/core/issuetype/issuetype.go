// Package issuetype is the closed set of civic defect classes and the folding
// that maps detector class labels onto it
package issuetype

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Type is one member of the closed issue type enum
type Type string

// Closed set
const (
	Pathholes    Type = "pathholes"
	Garbage      Type = "garbage"
	StreetDebris Type = "streetdebris"
	WaterLogging Type = "waterlogging"
	StreetLight  Type = "streetlight"
)

var all = []Type{Pathholes, Garbage, StreetDebris, WaterLogging, StreetLight}

// aliases are keyed by folded label
var aliases = map[string]Type{
	"pothole":    Pathholes,
	"potholes":   Pathholes,
	"pathhole":   Pathholes,
	"trash":      Garbage,
	"litter":     Garbage,
	"debris":     StreetDebris,
	"waterlog":   WaterLogging,
	"flooding":   WaterLogging,
	"streetlamp": StreetLight,
}

// All returns the enum members in declaration order
func All() []Type { return append([]Type(nil), all...) }

// Valid reports whether t is a member of the closed set
func (t Type) Valid() bool {
	for _, x := range all {
		if x == t {
			return true
		}
	}
	return false
}

func (t Type) String() string { return string(t) }

// fold chain: NFKC, drop separators, unicode case fold
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.Predicate(isSeparator)),
			cases.Fold(),
		)
	},
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '_' || r == '-' || r == '.'
}

// Fold canonicalises a raw label, "Street_Debris " and "street-debris" both fold to "streetdebris"
func Fold(raw string) string {
	raw = strings.ToValidUTF8(strings.TrimSpace(raw), "")
	if raw == "" {
		return ""
	}
	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, raw)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		return strings.ToLower(raw)
	}
	return out
}

// Parse maps a raw detector or client label onto the closed set
// ok is false for labels outside it
func Parse(raw string) (Type, bool) {
	f := Fold(raw)
	if f == "" {
		return "", false
	}
	if t := Type(f); t.Valid() {
		return t, true
	}
	if t, ok := aliases[f]; ok {
		return t, true
	}
	return "", false
}
