// Package license picks the one license of a member that matches a discipline.
package license

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Herbstein/iracing-driver-data-dump/internal/components/telemetry"
	"github.com/Herbstein/iracing-driver-data-dump/internal/iracing"
	"github.com/Herbstein/iracing-driver-data-dump/lib/textutil"

	"github.com/antzucaro/matchr"
)

const report_select_all = "license.select-all"

type Discipline string

const (
	Road     Discipline = "road"
	Oval     Discipline = "oval"
	DirtRoad Discipline = "dirt_road"
	DirtOval Discipline = "dirt_oval"
)

var Disciplines = []Discipline{Road, Oval, DirtRoad, DirtOval}

// suggestions below this similarity are not worth showing
const minSuggestionSimilarity = 0.7

// ParseDiscipline accepts any casing and `-` or a space in place of `_`.
func ParseDiscipline(value string) (Discipline, error) {
	normalized := textutil.NormalizeIdent(value)
	for _, d := range Disciplines {
		if normalized == string(d) {
			return d, nil
		}
	}

	var best Discipline
	var bestSimilarity float64
	for _, d := range Disciplines {
		similarity := matchr.JaroWinkler(normalized, string(d), false)
		if similarity > bestSimilarity {
			best = d
			bestSimilarity = similarity
		}
	}

	valid := make([]string, len(Disciplines))
	for i, d := range Disciplines {
		valid[i] = string(d)
	}
	if bestSimilarity >= minSuggestionSimilarity {
		return "", fmt.Errorf(
			"unknown discipline %q, did you mean %q? (expected one of %s)",
			value, best, strings.Join(valid, ", "),
		)
	}
	return "", fmt.Errorf("unknown discipline %q (expected one of %s)", value, strings.Join(valid, ", "))
}

var ErrMissingLicense = errors.New("member has no license for discipline")

type MissingLicenseError struct {
	CustId      uint32
	DisplayName string
	Discipline  Discipline
}

func (e *MissingLicenseError) Error() string {
	return fmt.Sprintf(
		"%s %d (%s) has no %s license",
		ErrMissingLicense.Error(), e.CustId, e.DisplayName, e.Discipline,
	)
}

func (e *MissingLicenseError) Is(target error) bool {
	return target == ErrMissingLicense
}

// Select returns the first license of the member in the given discipline.
func Select(member iracing.Member, discipline Discipline) (iracing.License, error) {
	for _, l := range member.Licenses {
		if l.Category == string(discipline) {
			return l, nil
		}
	}
	return iracing.License{}, &MissingLicenseError{
		CustId:      member.CustId,
		DisplayName: member.DisplayName,
		Discipline:  discipline,
	}
}

// MissingPolicy decides what SelectAll does with a member lacking a license.
type MissingPolicy string

const (
	// MissingFail aborts with the *MissingLicenseError.
	MissingFail MissingPolicy = "fail"
	// MissingSkip leaves the member out and reports a warning.
	MissingSkip MissingPolicy = "skip"
	// MissingZero keeps the member with a zero-valued license.
	MissingZero MissingPolicy = "zero"
)

func ParseMissingPolicy(value string) (MissingPolicy, error) {
	switch p := MissingPolicy(textutil.NormalizeIdent(value)); p {
	case MissingFail, MissingSkip, MissingZero:
		return p, nil
	}
	return "", fmt.Errorf("unknown missing license policy %q (expected one of fail, skip, zero)", value)
}

// Selection is a member together with its license for one discipline.
type Selection struct {
	Member  iracing.Member
	License iracing.License
}

// SelectAll runs Select over every member, keeping their order.
func SelectAll(
	members []iracing.Member,
	discipline Discipline,
	policy MissingPolicy,
	tel telemetry.API,
) ([]Selection, error) {
	selections := make([]Selection, 0, len(members))
	for _, m := range members {
		l, err := Select(m, discipline)
		if err == nil {
			selections = append(selections, Selection{Member: m, License: l})
			continue
		}

		switch policy {
		case MissingSkip:
			tel.ReportWarning(report_select_all, err)
		case MissingZero:
			tel.ReportWarning(report_select_all, err)
			selections = append(selections, Selection{
				Member:  m,
				License: iracing.License{Category: string(discipline)},
			})
		default:
			return nil, err
		}
	}
	return selections, nil
}
