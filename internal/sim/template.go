package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// TemplateProvider assembles utterances from fixed phrase tables without any
// network call. It never fails.
type TemplateProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewTemplateProvider returns a template-mode provider. A nil source gets a
// time-seeded one; tests inject a fixed seed for determinism.
func NewTemplateProvider(rng *rand.Rand) *TemplateProvider {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TemplateProvider{rng: rng}
}

func bot1Starters(topic, persona string) []string {
	return []string{
		fmt.Sprintf("%s에 대해 생각해봤는데요,", topic),
		fmt.Sprintf("%s에 관해서는 %s로서 제 생각은", topic, persona),
		fmt.Sprintf("%s에 대해 말씀드리자면,", topic),
		fmt.Sprintf("%s에 대한 제 의견을 공유하고 싶습니다 -", topic),
		fmt.Sprintf("%s로서 %s은 특히 흥미로운데요, 왜냐하면", persona, topic),
	}
}

func bot2Starters(topic, persona string) []string {
	return []string{
		fmt.Sprintf("%s에 대한 흥미로운 관점이네요. 저는", topic),
		fmt.Sprintf("좋은 지적입니다만, %s을 %s 관점에서 보면,", topic, persona),
		fmt.Sprintf("%s에 대한 그 아이디어를 발전시켜보면,", topic),
		fmt.Sprintf("흥미로운 시각입니다. 하지만 %s에 관해서는,", topic),
		fmt.Sprintf("%s에 대한 그 관점에 공감하지만,", topic),
	}
}

var continuations = []string{
	"이것은 사회에서 볼 수 있는 더 넓은 주제와 연결됩니다.",
	"여기에는 고려해야 할 여러 층위가 있습니다.",
	"장점과 과제 모두를 생각해봐야 합니다.",
	"혁신과 전통이 균형을 찾아야 합니다.",
	"다양한 관점이 더 나은 이해로 이어질 수 있습니다.",
	"그 의미는 우리가 처음 생각하는 것보다 더 멀리 뻗어 있습니다.",
	"이러한 논의에서는 맥락이 매우 중요합니다.",
	"여기에는 다양한 해석의 여지가 있습니다.",
}

var agreements = []string{
	"정확히 맞습니다, 그리고 덧붙이자면,",
	"완전히 동의합니다, 그리고 더 나아가,",
	"좋은 지적이네요, 이것은 또한",
	"바로 그겁니다! 이것은 또한",
}

func (p *TemplateProvider) Generate(_ context.Context, req Request) (Reply, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var starters []string
	if req.Speaker == Bot1 {
		starters = bot1Starters(req.Topic, req.Persona1)
	} else {
		starters = bot2Starters(req.Topic, req.Persona2)
	}
	starter := starters[p.rng.Intn(len(starters))]

	// Once the conversation is underway, sometimes agree with the other
	// side instead of restating a fresh opener.
	if len(req.History) > 2 && p.rng.Float64() > 0.5 {
		starter = agreements[p.rng.Intn(len(agreements))]
	}

	continuation := continuations[p.rng.Intn(len(continuations))]
	return Reply{Text: starter + " " + continuation}, nil
}
