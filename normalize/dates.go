package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	compactDateRE   = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	separatedDateRE = regexp.MustCompile(`^(\d{4})\s*[-./년]\s*(\d{1,2})\s*[-./월]\s*(\d{1,2})\s*일?\.?$`)
	timestampRE     = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})[ T](\d{1,2}):(\d{2})(?::(\d{2}))?`)
)

// Date parst die Datumsformate beider Quellen: YYYYMMDD, YYYY-MM-DD, YYYY.MM.DD,
// YYYY/MM/DD und "2024년 3월 15일". Ein angehängter Uhrzeitteil wird ignoriert.
func Date(s string) (time.Time, bool) {
	t := Text(s)
	if t == "" {
		return time.Time{}, false
	}
	if i := strings.IndexAny(t, " T"); i == 10 {
		t = t[:i]
	}
	m := compactDateRE.FindStringSubmatch(t)
	if m == nil {
		m = separatedDateRE.FindStringSubmatch(t)
	}
	if m == nil {
		return time.Time{}, false
	}
	return civilDate(m[1], m[2], m[3])
}

// Timestamp parst "YYYY/MM/DD HH:MM:SS" (API) sowie die Bindestrich-Variante
// in der angegebenen Zeitzone der Quelle.
func Timestamp(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	m := timestampRE.FindStringSubmatch(Text(s))
	if m == nil {
		return time.Time{}, false
	}
	day, ok := civilDate(m[1], m[2], m[3])
	if !ok {
		return time.Time{}, false
	}
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second := 0
	if m[6] != "" {
		second, _ = strconv.Atoi(m[6])
	}
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, second, 0, loc), true
}

// FormatDate liefert die kanonische Datumsdarstellung YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func civilDate(ys, ms, ds string) (time.Time, bool) {
	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	if m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}
