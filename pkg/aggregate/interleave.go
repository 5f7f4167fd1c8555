package aggregate

import (
	"math/rand/v2"
	"slices"

	"github.com/KonishchevDmitry/headlined/pkg/feed"
)

const unknownSource = "Unknown"

// FairInterleave mixes articles so that prolific sources don't dominate the output: sources are visited round-robin
// with a random group order and a fresh random start offset on every round, popping the newest article of each
// source, and the result is shuffled once more. The input slice is not modified.
func FairInterleave(articles []feed.Article, rng *rand.Rand) []feed.Article {
	if len(articles) <= 2 {
		return slices.Clone(articles)
	}

	var (
		names  []string
		groups = make(map[string][]feed.Article)
	)
	for _, article := range articles {
		name := article.Source
		if name == "" {
			name = unknownSource
		}
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		}
		groups[name] = append(groups[name], article)
	}

	queues := make([][]feed.Article, 0, len(names))
	for _, name := range names {
		group := groups[name]
		slices.SortStableFunc(group, func(a, b feed.Article) int {
			return b.Published.Compare(a.Published)
		})
		queues = append(queues, group)
	}
	rng.Shuffle(len(queues), func(i, j int) {
		queues[i], queues[j] = queues[j], queues[i]
	})

	result := make([]feed.Article, 0, len(articles))
	for len(result) < len(articles) {
		start := rng.IntN(len(queues))
		for step := range queues {
			queue := &queues[(start+step)%len(queues)]
			if len(*queue) != 0 {
				result = append(result, (*queue)[0])
				*queue = (*queue)[1:]
			}
		}
	}

	rng.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})

	return result
}
