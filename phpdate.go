package tabulate

import (
	"strconv"
	"strings"
	"time"
)

// formatTimeLayout renders t using letter tokens in the style report authors
// write date formats in ("Y-m-d", "d/m/Y H:i"). A backslash escapes the next
// character; characters that are not tokens are copied through.
func formatTimeLayout(t time.Time, layout string) string {
	var sb strings.Builder
	runes := []rune(layout)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' {
			if i+1 < len(runes) {
				i++
				sb.WriteRune(runes[i])
			}
			continue
		}
		sb.WriteString(dateToken(t, r))
	}
	return sb.String()
}

func dateToken(t time.Time, r rune) string {
	switch r {
	case 'd':
		return t.Format("02")
	case 'D':
		return t.Format("Mon")
	case 'j':
		return strconv.Itoa(t.Day())
	case 'l':
		return t.Format("Monday")
	case 'N':
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return strconv.Itoa(wd)
	case 'S':
		return ordinalSuffix(t.Day())
	case 'w':
		return strconv.Itoa(int(t.Weekday()))
	case 'z':
		return strconv.Itoa(t.YearDay() - 1)
	case 'W':
		_, week := t.ISOWeek()
		return pad2(week)
	case 'F':
		return t.Format("January")
	case 'm':
		return t.Format("01")
	case 'M':
		return t.Format("Jan")
	case 'n':
		return strconv.Itoa(int(t.Month()))
	case 't':
		return strconv.Itoa(daysIn(t))
	case 'L':
		if daysIn(time.Date(t.Year(), time.February, 1, 0, 0, 0, 0, time.UTC)) == 29 {
			return "1"
		}
		return "0"
	case 'o':
		year, _ := t.ISOWeek()
		return strconv.Itoa(year)
	case 'Y':
		return t.Format("2006")
	case 'y':
		return t.Format("06")
	case 'a':
		return t.Format("pm")
	case 'A':
		return t.Format("PM")
	case 'g':
		return t.Format("3")
	case 'G':
		return strconv.Itoa(t.Hour())
	case 'h':
		return t.Format("03")
	case 'H':
		return t.Format("15")
	case 'i':
		return t.Format("04")
	case 's':
		return t.Format("05")
	case 'u':
		return strings.TrimPrefix(t.Format(".000000"), ".")
	case 'v':
		return strings.TrimPrefix(t.Format(".000"), ".")
	case 'e':
		return t.Location().String()
	case 'T':
		return t.Format("MST")
	case 'P':
		return t.Format("-07:00")
	case 'p':
		return t.Format("Z07:00")
	case 'O':
		return t.Format("-0700")
	case 'Z':
		_, offset := t.Zone()
		return strconv.Itoa(offset)
	case 'c':
		return t.Format("2006-01-02T15:04:05-07:00")
	case 'r':
		return t.Format("Mon, 02 Jan 2006 15:04:05 -0700")
	case 'U':
		return strconv.FormatInt(t.Unix(), 10)
	default:
		return string(r)
	}
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
