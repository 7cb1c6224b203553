package interview

// Classification is the satisfaction judge's verdict on a single response.
type Classification string

const (
	Satisfied    Classification = "satisfied"
	Insufficient Classification = "insufficient"
	Unsatisfied  Classification = "unsatisfied"
)
