package utils

import (
	"fmt"
	"time"
)

// ParseDate interpreta AAAA-MM-DD como meia-noite no fuso loc
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("data vazia")
	}

	date, err := time.ParseInLocation(time.DateOnly, dateStr, loc)
	if err != nil {
		return time.Time{}, err
	}

	return date, nil
}
