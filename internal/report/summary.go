package report

import (
	"strconv"

	"github.com/Herbstein/iracing-driver-data-dump/internal/license"
)

// Summary is a row of the report, every field is already formatted.
type Summary struct {
	Id      string
	Name    string
	IRating string
	License string
	SR      string
}

var TableHeader = []string{"Id", "Name", "iRating", "License", "SR"}
var CsvHeader = []string{"id", "name", "iRating", "license", "SR"}

func (s Summary) Fields() []string {
	return []string{s.Id, s.Name, s.IRating, s.License, s.SR}
}

func Summarize(selections []license.Selection) []Summary {
	summaries := make([]Summary, len(selections))
	for i, s := range selections {
		summaries[i] = Summary{
			Id:      strconv.FormatUint(uint64(s.Member.CustId), 10),
			Name:    s.Member.DisplayName,
			IRating: strconv.FormatUint(uint64(s.License.IRating), 10),
			License: s.License.GroupName,
			SR:      strconv.FormatFloat(float64(s.License.SafetyRating), 'f', -1, 32),
		}
	}
	return summaries
}
