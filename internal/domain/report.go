package domain

import "time"

// Report is the outcome of a complete benchmark run.
type Report struct {
	RunID     string       `json:"run_id"`
	Suite     string       `json:"suite"`
	Task      TaskKind     `json:"task"`
	StartedAt time.Time    `json:"started_at"`
	Duration  Duration     `json:"duration"`
	Backends  []string     `json:"backends"`
	Outputs   ResultMatrix `json:"outputs"`

	Evaluations Evaluations `json:"evaluations"`
	Weights     Weights     `json:"weights"`
	RankSums    []float64   `json:"rank_sums"`
	Ranks       RankTable   `json:"ranks"`
}

// Duration marshals as a human readable string such as "1.5s".
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
