package eval

import (
	"context"
	"log"
	"math"

	"chat-simulator/internal/transcript"
)

// Publisher receives every state change of a running batch: the current item
// list and progress in percent. On abort it is called once with an empty list
// and zero progress.
type Publisher func(items []transcript.Item, progress float64)

// Orchestrator grades parsed transcript items strictly one at a time, so
// progress is monotonic and external rate limits are respected. The first
// failure of any kind aborts the batch and discards all accumulated results.
type Orchestrator struct {
	scorer  Scorer
	publish Publisher
}

func NewOrchestrator(scorer Scorer, publish Publisher) *Orchestrator {
	if publish == nil {
		publish = func([]transcript.Item, float64) {}
	}
	return &Orchestrator{scorer: scorer, publish: publish}
}

// RunBatch scores items in order. On success every item ends completed and
// the returned error is nil; on the first failure all items are discarded and
// the failure reason is returned for the caller's standing error banner.
func (o *Orchestrator) RunBatch(ctx context.Context, items []transcript.Item) error {
	batch := make([]transcript.Item, len(items))
	copy(batch, items)
	for i := range batch {
		batch[i].Status = transcript.StatusPending
	}
	o.publish(snapshot(batch), 0)

	completed := 0
	for i := range batch {
		result, err := o.scorer.Score(ctx, batch[i])
		if err != nil {
			log.Printf("❌ evaluation batch aborted at item %d/%d: %v", i+1, len(batch), err)
			o.publish([]transcript.Item{}, 0)
			return err
		}

		batch[i].Grade = gradeOf(result.Scores)
		batch[i].Scores = result.Scores
		batch[i].Explanation = result.Explanation
		batch[i].Status = transcript.StatusCompleted

		completed++
		o.publish(snapshot(batch), float64(completed)/float64(len(batch))*100)
	}
	return nil
}

// gradeOf collapses the metric scores into the 1-5 grade: the rounded mean,
// or a neutral 3 when the endpoint returned no metrics.
func gradeOf(scores map[string]float64) int {
	if len(scores) == 0 {
		return 3
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return int(math.Round(sum / float64(len(scores))))
}

func snapshot(items []transcript.Item) []transcript.Item {
	out := make([]transcript.Item, len(items))
	copy(out, items)
	return out
}
