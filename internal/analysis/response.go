package analysis

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/safepath-labs/safepath/internal/model"
)

// AnalyzeResponse summarizes 311 case records into response time statistics
// and a resolution rate. Cases without a close date count as open and are
// excluded from the time statistics. An empty record set yields the zero
// summary.
func AnalyzeResponse(records []model.CaseRecord, now time.Time) (*model.ResponseAnalysis, error) {
	out := &model.ResponseAnalysis{
		CategoryPerformance: map[string]model.CategoryPerformance{},
		HourlyPerformance:   map[int]float64{},
	}
	if len(records) == 0 {
		return out, nil
	}

	var (
		all      []float64
		byCat    = map[string][]float64{}
		byHour   = map[int][]float64{}
		resolved int
	)

	for _, rec := range records {
		created, err := model.ParseCivicTime(rec.CreatedDate)
		if err != nil || created.IsZero() {
			if err == nil {
				err = errMissingCreated
			}
			return nil, &Error{Dataset: "cases", Records: len(records), Err: err}
		}
		closed, err := model.ParseCivicTime(rec.ClosedDate)
		if err != nil {
			return nil, &Error{Dataset: "cases", Records: len(records), Err: err}
		}

		out.TotalCases++
		if closed.IsZero() {
			out.OpenCases++
			continue
		}
		resolved++

		hours := closed.Sub(created).Hours()
		all = append(all, hours)
		byCat[rec.Category] = append(byCat[rec.Category], hours)
		byHour[created.Hour()] = append(byHour[created.Hour()], hours)
	}

	sortedAll := sortedCopy(all)
	out.MeanResponseHours = mean(all)
	out.MedianResponseHours = median(sortedAll)
	out.Percentile90 = quantile(sortedAll, 0.90)
	out.Percentile95 = quantile(sortedAll, 0.95)
	out.ResolutionRate = ratio(resolved, out.TotalCases)

	for cat, times := range byCat {
		out.CategoryPerformance[cat] = model.CategoryPerformance{
			MeanHours:   mean(times),
			MedianHours: median(sortedCopy(times)),
			Count:       len(times),
		}
	}
	for hour, times := range byHour {
		out.HourlyPerformance[hour] = mean(times)
	}

	return out, nil
}

var errMissingCreated = eris.New("case record has no created_date")
