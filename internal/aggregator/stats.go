package aggregator

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pable/nfl-tackle-metrics/internal/model"
)

// bmiImperial converts lb/in² to kg/m².
const bmiImperial = 703

// HeightInches parses a "feet-inches" height such as "6-2" into total inches.
func HeightInches(nflID int64, height string) (int, error) {
	parts := strings.Split(strings.TrimSpace(height), "-")
	if len(parts) != 2 {
		return 0, &model.HeightError{NflID: nflID, Height: height}
	}
	feet, err := strconv.Atoi(parts[0])
	if err != nil || feet < 0 {
		return 0, &model.HeightError{NflID: nflID, Height: height}
	}
	inches, err := strconv.Atoi(parts[1])
	if err != nil || inches < 0 {
		return 0, &model.HeightError{NflID: nflID, Height: height}
	}
	total := feet*12 + inches
	if total == 0 {
		return 0, &model.HeightError{NflID: nflID, Height: height}
	}
	return total, nil
}

// BMI computes body-mass index from pounds and a "feet-inches" height.
func BMI(nflID int64, height string, weightLbs float64) (float64, error) {
	in, err := HeightInches(nflID, height)
	if err != nil {
		return 0, err
	}
	return weightLbs / float64(in*in) * bmiImperial, nil
}

// Mean returns the arithmetic mean of the non-NaN values, NaN if there are none.
func Mean(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return model.NoData()
	}
	return sum / float64(n)
}

// Quantile returns the q-quantile (0 <= q <= 1) of the non-NaN values using
// linear interpolation between closest ranks, rank = q*(n-1). It returns NaN
// when no value is defined.
func Quantile(values []float64, q float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return model.NoData()
	}
	sort.Float64s(sorted)

	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
