package scanner

import (
	"context"
	"fmt"

	"github.com/promptgate-ai/promptgate/internal/detect"
)

// TopicThreshold pairs a banned topic with its blocking confidence.
type TopicThreshold struct {
	Topic     string
	Threshold float64
}

// BanTopics classifies text against the banned-topic list and blocks when any
// topic's confidence reaches its threshold. Keyword-set scoring by default;
// an ML provider can contribute per-topic labels.
type BanTopics struct {
	bundle *detect.Bundle
	ml     LabelScorer
	topics []TopicThreshold
}

func NewBanTopics(bundle *detect.Bundle, ml LabelScorer, topics []TopicThreshold) *BanTopics {
	cleaned := make([]TopicThreshold, 0, len(topics))
	for _, t := range topics {
		if t.Topic == "" {
			continue
		}
		if t.Threshold <= 0 || t.Threshold > 1 {
			t.Threshold = 0.8
		}
		cleaned = append(cleaned, t)
	}
	return &BanTopics{bundle: bundle, ml: ml, topics: cleaned}
}

func (b *BanTopics) Name() string { return "BanTopics" }

func (b *BanTopics) Scan(ctx context.Context, text, prior string) (Result, error) {
	valid := true
	var maxScore float64

	for _, t := range b.topics {
		score := b.bundle.TopicScore(t.Topic, text)
		if b.ml != nil {
			if s, ok := b.ml.LabelScore(ctx, text, fmt.Sprintf("topic_%s", t.Topic)); ok && s > score {
				score = s
			}
		}
		if score > maxScore {
			maxScore = score
		}
		if score >= t.Threshold {
			valid = false
		}
	}

	return Result{Text: text, Valid: valid, Score: clampScore(maxScore)}, nil
}
