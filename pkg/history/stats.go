package history

import "math"

type DisciplineStats struct {
	Answered int     `json:"answered"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

type Stats struct {
	Answered     int                        `json:"answered"`
	Correct      int                        `json:"correct"`
	Accuracy     float64                    `json:"accuracy"`
	ByDiscipline map[string]DisciplineStats `json:"byDiscipline"`
}

// ComputeStats summarises entries; accuracy is a percentage rounded to one decimal.
func ComputeStats(entries []Entry) Stats {
	s := Stats{ByDiscipline: map[string]DisciplineStats{}}
	for _, e := range entries {
		d := s.ByDiscipline[e.Question.Discipline]
		s.Answered++
		d.Answered++
		if e.Answer.IsCorrect {
			s.Correct++
			d.Correct++
		}
		s.ByDiscipline[e.Question.Discipline] = d
	}
	s.Accuracy = accuracy(s.Correct, s.Answered)
	for k, d := range s.ByDiscipline {
		d.Accuracy = accuracy(d.Correct, d.Answered)
		s.ByDiscipline[k] = d
	}
	return s
}

func accuracy(correct, answered int) float64 {
	if answered == 0 {
		return 0
	}
	return math.Round(float64(correct)*1000/float64(answered)) / 10
}
