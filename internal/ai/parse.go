package ai

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	amountPattern  = regexp.MustCompile(`\$([0-9][0-9,]*(?:\.[0-9]+)?)\$`)
	numberRegex    = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
	ErrParseFailed = errors.New("parse_failed")
)

var arabicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"٫", ".", "٬", ",",
)

// ParseAmount extracts the transferred amount from model output. It first
// tries the strict $<number>$ format and falls back to the longest number in
// the text. Arabic-Indic digits and thousands separators are accepted.
func ParseAmount(text string) (float64, error) {
	text = arabicDigits.Replace(text)
	if m := amountPattern.FindStringSubmatch(text); len(m) >= 2 {
		return parseNumber(m[1])
	}
	matches := numberRegex.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: no amount found", ErrParseFailed)
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if len(m) > len(best) {
			best = m
		}
	}
	return parseNumber(best)
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return v, nil
}
