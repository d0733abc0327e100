package comparator

import (
	"math"
	"strings"

	"github.com/dtnitsch/markdownizer/models"
)

const (
	// DefaultThreshold is the score gap below which the extension wins.
	DefaultThreshold = 0.05
	// DefaultBlockerPenalty is subtracted from the server score when any
	// blocker is reported.
	DefaultBlockerPenalty = 0.3
)

// Scoring weights. They sum to 0.80, so an unpenalized candidate never
// scores above 0.80.
const (
	weightLength    = 0.35
	weightDensity   = 0.20
	weightStructure = 0.10
	weightFreshness = 0.10
	weightLinks     = 0.05
)

// Decision is the outcome of one arbitration. Scores are rounded to three
// decimals.
type Decision struct {
	Chosen         models.SourceTag `json:"chosen" yaml:"chosen"`
	ScoreA         float64          `json:"score_a" yaml:"score_a"`
	ScoreB         float64          `json:"score_b" yaml:"score_b"`
	ScoreDiff      float64          `json:"score_diff" yaml:"score_diff"`
	Overlap        float64          `json:"overlap" yaml:"overlap"`
	BlockerPenalty float64          `json:"blocker_penalty" yaml:"blocker_penalty"`
	SignalsA       SignalSet        `json:"signals_a" yaml:"signals_a"`
	SignalsB       SignalSet        `json:"signals_b" yaml:"signals_b"`
}

// Comparator arbitrates between the extension and server candidates. The zero
// value is not usable; call New.
type Comparator struct {
	Threshold      float64
	MaxLen         int
	BlockerPenalty float64
}

// New returns a Comparator with the default threshold, cap and penalty.
func New() *Comparator {
	return &Comparator{
		Threshold:      DefaultThreshold,
		MaxLen:         DefaultMaxLen,
		BlockerPenalty: DefaultBlockerPenalty,
	}
}

// SemanticOverlap is the Jaccard similarity of the word-trigram sets of a
// and b. Texts with fewer than three words overlap with nothing.
func SemanticOverlap(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

func trigrams(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < 3 {
		return nil
	}
	set := make(map[string]struct{}, len(words)-2)
	for i := 0; i+3 <= len(words); i++ {
		set[strings.Join(words[i:i+3], " ")] = struct{}{}
	}
	return set
}

// ScoreCandidate combines s into a weighted score, subtracts penalty and
// clamps the result to [0, 1].
func ScoreCandidate(s SignalSet, penalty float64) float64 {
	score := weightLength*s.LenNorm +
		weightDensity*s.Density +
		weightStructure*math.Min(float64(s.Structure)/50, 1) +
		weightFreshness*s.Freshness +
		weightLinks*s.LinkQuality
	return clamp(score-penalty, 0, 1)
}

// Arbitrate scores ext against srv and picks a winner. The penalty applies to
// the server side only, when flags report any blocker. Scores closer than
// the threshold go to the extension. title is accepted for future signals and
// does not affect the score.
func (c *Comparator) Arbitrate(ext, srv models.ContentCandidate, title string, flags *models.BlockerFlags) Decision {
	sigA := computeSignals(ext.Text, ext.HTML, c.MaxLen)
	sigB := computeSignals(srv.Text, srv.HTML, c.MaxLen)

	overlap := SemanticOverlap(ext.Text, srv.Text)
	sigA.Overlap = overlap
	sigB.Overlap = overlap

	penalty := 0.0
	if flags.Any() {
		penalty = c.BlockerPenalty
	}

	scoreA := ScoreCandidate(sigA, 0)
	scoreB := ScoreCandidate(sigB, penalty)
	diff := math.Abs(scoreA - scoreB)

	chosen := models.SourceExtension
	if diff >= c.Threshold && scoreB > scoreA {
		chosen = models.SourceServer
	}

	return Decision{
		Chosen:         chosen,
		ScoreA:         round3(scoreA),
		ScoreB:         round3(scoreB),
		ScoreDiff:      round3(diff),
		Overlap:        round3(overlap),
		BlockerPenalty: penalty,
		SignalsA:       sigA.rounded(),
		SignalsB:       sigB.rounded(),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func (s SignalSet) rounded() SignalSet {
	s.LenNorm = round3(s.LenNorm)
	s.Density = round3(s.Density)
	s.LinkQuality = round3(s.LinkQuality)
	s.Overlap = round3(s.Overlap)
	return s
}
