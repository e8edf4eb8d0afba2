package ine

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the YYYYMMDD form the service expects in the date parameter.
const DateLayout = "20060102"

// Parameter keys understood by the series endpoints.
const (
	ParamDate = "date"
	ParamLast = "last"
	ParamGeo  = "geo"
)

// DateSpec restricts a series query by date. It is implemented by Date,
// DateRange and DateList only; a nil DateSpec means no restriction.
type DateSpec interface {
	dateValues() []string
}

// Date is a single date in YYYYMMDD form. It is sent verbatim.
type Date string

func (d Date) dateValues() []string {
	if d == "" {
		return nil
	}
	return []string{string(d)}
}

// DateRange is a half-open interval. An empty Start or End leaves that side open.
type DateRange struct {
	Start string
	End   string
}

func (r DateRange) dateValues() []string {
	return []string{r.Start + ":" + r.End}
}

func (r DateRange) String() string { return r.Start + ":" + r.End }

// DateList is an explicit set of dates, sent as one date entry per element.
type DateList []string

func (l DateList) dateValues() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, len(l))
	copy(out, l)
	return out
}

// DateOf formats t as a Date.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Since returns the range from start onward.
func Since(start string) DateRange { return DateRange{Start: start} }

// Until returns the range up to and including end.
func Until(end string) DateRange { return DateRange{End: end} }

// Between returns the range from start to end.
func Between(start, end string) DateRange { return DateRange{Start: start, End: end} }

// GeoFlag asks for geographically disaggregated results. The zero value omits the parameter.
type GeoFlag uint8

const (
	GeoUnset GeoFlag = iota
	GeoOff
	GeoOn
)

// GeoFromInt maps 0 and 1 to GeoOff and GeoOn.
func GeoFromInt(v int) (GeoFlag, error) {
	switch v {
	case 0:
		return GeoOff, nil
	case 1:
		return GeoOn, nil
	default:
		return GeoUnset, fmt.Errorf("%w: geo must be 0 or 1, got %d", ErrInvalidQuery, v)
	}
}

// Query is the logical form of a series request.
// Last is the number of most recent values to return; zero means all.
type Query struct {
	Date DateSpec
	Last int
	Geo  GeoFlag
}

// Encode builds the request parameters for q. A key is present only when the
// matching field is set. Date and Last may be combined; the service decides
// what that means.
func Encode(q Query) (url.Values, error) {
	params := url.Values{}

	if q.Date != nil {
		for _, v := range q.Date.dateValues() {
			params.Add(ParamDate, v)
		}
	}

	if q.Last < 0 {
		return nil, fmt.Errorf("%w: last must be positive, got %d", ErrInvalidQuery, q.Last)
	}
	if q.Last > 0 {
		params.Set(ParamLast, strconv.Itoa(q.Last))
	}

	switch q.Geo {
	case GeoUnset:
	case GeoOff:
		params.Set(ParamGeo, "0")
	case GeoOn:
		params.Set(ParamGeo, "1")
	default:
		return nil, fmt.Errorf("%w: unknown geo flag %d", ErrInvalidQuery, q.Geo)
	}

	return params, nil
}

// ParseDateSpec parses the textual date forms accepted by the CLI and the gateway:
//
//	"20000101"            single date
//	"20000101:20201231"   range, either side may be empty
//	"20000101,20010101"   list
//
// An empty string yields a nil DateSpec.
func ParseDateSpec(s string) (DateSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if strings.Contains(s, ":") {
		start, end, _ := strings.Cut(s, ":")
		if strings.Contains(end, ":") {
			return nil, fmt.Errorf("%w: date range %q has more than one ':'", ErrInvalidQuery, s)
		}
		start, end = strings.TrimSpace(start), strings.TrimSpace(end)
		for _, d := range []string{start, end} {
			if d == "" {
				continue
			}
			if err := ValidateDate(d); err != nil {
				return nil, err
			}
		}
		return DateRange{Start: start, End: end}, nil
	}

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		list := make(DateList, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if err := ValidateDate(p); err != nil {
				return nil, err
			}
			list = append(list, p)
		}
		return list, nil
	}

	if err := ValidateDate(s); err != nil {
		return nil, err
	}
	return Date(s), nil
}

// ValidateDate checks that d is a real calendar date in YYYYMMDD form.
func ValidateDate(d string) error {
	if len(d) != len(DateLayout) {
		return fmt.Errorf("%w: date %q is not in YYYYMMDD form", ErrInvalidQuery, d)
	}
	if _, err := time.Parse(DateLayout, d); err != nil {
		return fmt.Errorf("%w: date %q is not in YYYYMMDD form", ErrInvalidQuery, d)
	}
	return nil
}
