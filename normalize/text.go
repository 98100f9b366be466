// Package normalize enthält die Bausteine des Quell-Adapters: Texte, Datumsangaben
// und Zahlen aus heterogenen Quellen werden in eine kanonische Form gebracht.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRE        = regexp.MustCompile("[\\s\u00A0]+")
	thousandsRE    = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
	decimalCommaRE = regexp.MustCompile(`^[+-]?\d+,\d+$`)
)

// Text führt NFC-Normalisierung durch (Excel-Exporte von macOS liefern Hangul in NFD),
// fasst Leerraum zusammen und trimmt.
func Text(s string) string {
	if s == "" {
		return ""
	}
	normalized, _, err := transform.String(norm.NFC, s)
	if err != nil {
		normalized = s
	}
	return strings.TrimSpace(spaceRE.ReplaceAllString(normalized, " "))
}

// String liefert nil für leere Eingaben, sonst den normalisierten Text.
func String(s string) *string {
	t := Text(s)
	if t == "" {
		return nil
	}
	return &t
}

// Int parst defensiv eine Ganzzahl; nicht parsbare Werte ergeben nil.
// Werte wie "2019.0" aus Tabellenzellen werden akzeptiert.
func Int(s string) *int {
	t := Text(s)
	if t == "" {
		return nil
	}
	if n, err := strconv.Atoi(t); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || f != float64(int(f)) {
		return nil
	}
	n := int(f)
	return &n
}

// Float parst defensiv eine Gleitkommazahl; nicht parsbare Werte ergeben nil.
// Kommas gelten als Tausendertrenner ("1,234.5") oder, einzeln und ohne Punkt,
// als Dezimalkomma ("1,5"). NaN und Inf sind keine gültigen Kennzahlen.
func Float(s string) *float64 {
	t := Text(s)
	switch {
	case t == "":
		return nil
	case thousandsRE.MatchString(t):
		t = strings.ReplaceAll(t, ",", "")
	case decimalCommaRE.MatchString(t):
		t = strings.Replace(t, ",", ".", 1)
	case strings.Contains(t, ","):
		return nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Flag liefert nil für leere Eingaben, sonst true genau dann, wenn der Wert
// (ohne Beachtung der Groß-/Kleinschreibung) einem der truthy-Werte entspricht.
func Flag(s string, truthy ...string) *bool {
	t := Text(s)
	if t == "" {
		return nil
	}
	v := false
	for _, candidate := range truthy {
		if strings.EqualFold(t, candidate) {
			v = true
			break
		}
	}
	return &v
}

// FlexibleString wandelt ein JSON-Skalar in einen String um, egal ob die Quelle
// String, Zahl oder Boolean geliefert hat. null und leere Werte ergeben "".
func FlexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return strconv.FormatFloat(numVal, 'f', -1, 64)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// Fingerprint bildet den inhaltsbasierten Schlüssel für Forschungsergebnisse ohne externe ID.
func Fingerprint(facNIP, title string, publishedAt time.Time) string {
	key := strings.Join([]string{
		Text(facNIP),
		strings.ToLower(Text(title)),
		FormatDate(publishedAt),
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
