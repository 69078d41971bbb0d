package gesture

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
)

// DefaultK is the number of nearest samples that vote on a label.
const DefaultK = 3

// neighbor is one stored sample and its distance to the live frame.
type neighbor struct {
	label    string
	distance float64
}

// Classifier labels a single frame by k-nearest-neighbour vote over all
// stored samples.
type Classifier struct {
	k   int
	log *logrus.Entry
}

// NewClassifier creates a Classifier. A k below 1 means DefaultK.
func NewClassifier(k int, log *logrus.Entry) *Classifier {
	if k < 1 {
		k = DefaultK
	}
	if log == nil {
		log = logging.Component(nil, "classifier")
	}
	return &Classifier{k: k, log: log}
}

// K returns the neighbour count.
func (c *Classifier) K() int {
	return c.k
}

// Classify returns the majority label among the k samples closest to live.
// live is normalized before comparison, so raw and normalized frames give
// the same result. Confidence is votes / k, so it stays below 1 when fewer
// than k samples exist.
func (c *Classifier) Classify(live landmark.Frame, gestures []Gesture) Result {
	if len(gestures) == 0 {
		return Result{Label: LabelNoGestures}
	}
	live = landmark.Normalize(live)

	// Step 1: Distance to every sample
	var neighbors []neighbor
	for _, g := range gestures {
		for _, sample := range g.Samples {
			d := landmark.Distance(live, sample)
			if math.IsInf(d, 1) || math.IsNaN(d) {
				continue
			}
			if landmark.Mismatch(live, sample) {
				c.log.WithFields(logrus.Fields{
					"label":  g.Label,
					"live":   len(live),
					"sample": len(sample),
				}).Debug("landmark count mismatch, comparing shared points")
			}
			neighbors = append(neighbors, neighbor{label: g.Label, distance: d})
		}
	}

	if len(neighbors) == 0 {
		return Result{Label: LabelUnknown}
	}

	// Step 2: Nearest first, stored order kept on ties
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].distance < neighbors[j].distance
	})

	// Step 3: Majority vote over the first k
	top := neighbors[:min(c.k, len(neighbors))]
	votes := make(map[string]int, len(top))
	var order []string
	for _, n := range top {
		if _, seen := votes[n.label]; !seen {
			order = append(order, n.label)
		}
		votes[n.label]++
	}

	best := order[0]
	for _, label := range order[1:] {
		if votes[label] > votes[best] {
			best = label
		}
	}

	return Result{
		Label:      best,
		Confidence: float64(votes[best]) / float64(c.k),
	}
}
