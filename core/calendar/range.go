package calendar

import "time"

// Range is one partition boundary: Start inclusive, End exclusive, both
// aligned to the period start in UTC. Suffix names the partition.
type Range struct {
	Start  time.Time
	End    time.Time
	Suffix string
}

// Sequence produces the partition boundaries spanning past periods
// before and future periods after the reference date, inclusive on both
// ends. Each range's End equals the next range's Start. Negative spans
// are treated as zero, so the reference period is always covered.
func Sequence(reference time.Time, p Period, past, future int) []Range {
	if past < 0 {
		past = 0
	}
	if future < 0 {
		future = 0
	}
	start := p.Floor(reference)

	ranges := make([]Range, 0, past+future+1)
	for n := -past; n <= future; n++ {
		s := p.Add(start, n)
		ranges = append(ranges, Range{
			Start:  s,
			End:    p.Add(s, 1),
			Suffix: p.Suffix(s),
		})
	}
	return ranges
}
