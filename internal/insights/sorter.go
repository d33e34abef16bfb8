package insights

import (
	"sort"

	"rms-insight-workers/internal/models"
)

// rateVarianceTieBand is the distance under which two rate variances are
// considered equally urgent.
const rateVarianceTieBand = 10

var parityStatusOrder = map[string]int{
	models.ParityLoss: 0,
	models.ParityWin:  1,
	models.ParityMeet: 2,
}

// SortRows returns the rows ordered most urgent first. Keys, in precedence order:
//
//  1. subscriber closed while an average compset rate exists
//  2. more than half of the compset closed
//  3. rate variance vs the average compset, descending, with values less than
//     10 points apart tied and rows without a variance last
//  4. event days, 5. holidays, 6. days with demand data
//  7. parity: single-channel statuses (L, W, M) before numeric scores,
//     numeric scores descending
//  8. OTA rank change ascending (biggest drop first)
//
// Each key is applied as its own stable pass, least significant first, so a
// later pass keeps the order of rows it ties. The variance tie band is not
// transitive and cannot be folded into one comparator without breaking the
// ordering contract of sort. The input slice is left untouched.
func SortRows(rows []models.InsightRow) []models.InsightRow {
	out := make([]models.InsightRow, len(rows))
	copy(out, rows)
	for _, pass := range sortPasses {
		sort.SliceStable(out, func(i, j int) bool {
			return pass(&out[i], &out[j]) < 0
		})
	}
	return out
}

type rowComparator func(a, b *models.InsightRow) int

// sortPasses runs from the least to the most significant key.
var sortPasses = []rowComparator{
	func(a, b *models.InsightRow) int { return a.ChangeInOtaRank - b.ChangeInOtaRank },
	compareParity,
	func(a, b *models.InsightRow) int { return trueFirst(a.IsDemandIndexThere, b.IsDemandIndexThere) },
	func(a, b *models.InsightRow) int { return trueFirst(a.IsHolidayThere, b.IsHolidayThere) },
	func(a, b *models.InsightRow) int { return trueFirst(a.IsEventThere, b.IsEventThere) },
	func(a, b *models.InsightRow) int {
		return compareRateVariance(a.PercentageChangeInSubscriberAndAverageRate, b.PercentageChangeInSubscriberAndAverageRate)
	},
	func(a, b *models.InsightRow) int {
		return trueFirst(a.IsBoolMoreThanFiftyCompClosedPercentage, b.IsBoolMoreThanFiftyCompClosedPercentage)
	},
	func(a, b *models.InsightRow) int {
		return trueFirst(a.ClosedAgainstAvgCompset(), b.ClosedAgainstAvgCompset())
	},
}

func trueFirst(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

func compareRateVariance(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if abs(*a-*b) < rateVarianceTieBand {
		return 0
	}
	return *b - *a
}

func compareParity(a, b *models.InsightRow) int {
	ra, rb := parityRank(a), parityRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case parityRankStatus:
		return parityStatusOrder[a.ParityScore] - parityStatusOrder[b.ParityScore]
	case parityRankScore:
		switch {
		case *a.ParityScoreAbsolute > *b.ParityScoreAbsolute:
			return -1
		case *a.ParityScoreAbsolute < *b.ParityScoreAbsolute:
			return 1
		}
	}
	return 0
}

const (
	parityRankStatus = iota
	parityRankScore
	parityRankNone
)

func parityRank(r *models.InsightRow) int {
	if _, ok := parityStatusOrder[r.ParityScore]; ok {
		return parityRankStatus
	}
	if r.ParityScoreAbsolute != nil {
		return parityRankScore
	}
	return parityRankNone
}
