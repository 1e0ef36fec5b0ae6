package handlers

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/models"
)

// filterSignals mirrors the filter inputs of the dashboard page. The JSON API
// fills the same struct from query parameters.
type filterSignals struct {
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	PaymentType string   `json:"paymentType"`
	Categories  []string `json:"categories"`
	View        string   `json:"view"`
}

func signalsFromQuery(q url.Values) filterSignals {
	s := filterSignals{
		StartDate:   q.Get("start"),
		EndDate:     q.Get("end"),
		PaymentType: q.Get("payment_type"),
		View:        q.Get("view"),
	}
	// A single category parameter may list several names separated by
	// commas. Repeated parameters are taken verbatim so names containing a
	// comma stay selectable.
	switch values := q["category"]; len(values) {
	case 0:
	case 1:
		s.Categories = strings.Split(values[0], ",")
	default:
		s.Categories = values
	}
	return s
}

// spec builds the FilterSpec. A malformed date is a bad request; range
// checks happen when the session is created.
func (s filterSignals) spec() (models.FilterSpec, error) {
	start, err := parseDate("start", s.StartDate)
	if err != nil {
		return models.FilterSpec{}, err
	}
	end, err := parseDate("end", s.EndDate)
	if err != nil {
		return models.FilterSpec{}, err
	}

	var categories []string
	for _, c := range s.Categories {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	return models.FilterSpec{
		StartDate:   start,
		EndDate:     end,
		PaymentType: strings.TrimSpace(s.PaymentType),
		Categories:  categories,
	}, nil
}

func (s filterSignals) viewKind() (models.ViewKind, error) {
	kind, err := models.ParseViewKind(strings.TrimSpace(s.View))
	if err != nil {
		return "", errors.BadRequestWrap(err, err.Error())
	}
	return kind, nil
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, errors.BadRequestWrap(err, fmt.Sprintf("invalid %s date %q, expected YYYY-MM-DD", field, value))
	}
	return t, nil
}
