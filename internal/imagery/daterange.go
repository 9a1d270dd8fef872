package imagery

import "time"

// DefaultStepDays is the cadence between animation samples.
const DefaultStepDays = 30

// MaxSamples bounds the dates a single animation may request.
const MaxSamples = 1000

// DateRange is an inclusive span of calendar days sampled every StepDays.
type DateRange struct {
	Start    time.Time
	End      time.Time
	StepDays int
}

// NewDateRange truncates start and end to UTC calendar days.
func NewDateRange(start, end time.Time, stepDays int) DateRange {
	if stepDays <= 0 {
		stepDays = DefaultStepDays
	}
	return DateRange{
		Start:    calendarDay(start),
		End:      calendarDay(end),
		StepDays: stepDays,
	}
}

// Dates returns start + k*step for k = 0..ceil(span/step). The last sample is
// clamped to End, so both ends are covered and the result is strictly
// increasing. An inverted range yields nil.
func (r DateRange) Dates() []time.Time {
	start, end := calendarDay(r.Start), calendarDay(r.End)
	if end.Before(start) {
		return nil
	}
	step := r.step()
	n := r.steps()
	dates := make([]time.Time, 0, n+1)
	for k := 0; k <= n; k++ {
		d := start.AddDate(0, 0, k*step)
		if d.After(end) {
			d = end
		}
		dates = append(dates, d)
	}
	return dates
}

// Len is the number of upstream calls an acquisition over r makes.
func (r DateRange) Len() int {
	if calendarDay(r.End).Before(calendarDay(r.Start)) {
		return 0
	}
	return r.steps() + 1
}

// Days is the number of calendar days from Start to End.
func (r DateRange) Days() int64 {
	return (calendarDay(r.End).Unix() - calendarDay(r.Start).Unix()) / 86400
}

func (r DateRange) step() int {
	if r.StepDays <= 0 {
		return DefaultStepDays
	}
	return r.StepDays
}

// steps is ceil(Days/step). Days are counted from Unix seconds because a
// time.Duration saturates at about 292 years.
func (r DateRange) steps() int {
	step := int64(r.step())
	return int((r.Days() + step - 1) / step)
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
