package loader

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AspectSummary describes how consistent the aspect ratios of a deck's
// images are. Slides with a different ratio end up stretched to the height
// of the tallest one.
type AspectSummary struct {
	Count    int
	Mean     float64
	StdDev   float64
	Outliers []string
}

// OutlierSigma is how many standard deviations from the mean an aspect ratio
// may be before it is reported.
const OutlierSigma = 1.5

// SummarizeAspects computes the aspect ratio statistics of the successfully
// decoded reports.
func SummarizeAspects(reports []ImageReport) AspectSummary {
	var ratios []float64
	var sources []string
	for _, r := range reports {
		if r.Err != nil || r.Width <= 0 || r.Height <= 0 {
			continue
		}
		ratios = append(ratios, float64(r.Width)/float64(r.Height))
		sources = append(sources, r.Source)
	}

	sum := AspectSummary{Count: len(ratios)}
	if len(ratios) == 0 {
		return sum
	}
	sum.Mean, sum.StdDev = stat.MeanStdDev(ratios, nil)
	if len(ratios) < 2 || math.IsNaN(sum.StdDev) {
		sum.StdDev = 0
		return sum
	}
	if sum.StdDev == 0 {
		return sum
	}
	for i, r := range ratios {
		if math.Abs(r-sum.Mean) > OutlierSigma*sum.StdDev {
			sum.Outliers = append(sum.Outliers, sources[i])
		}
	}
	sort.Strings(sum.Outliers)
	return sum
}
