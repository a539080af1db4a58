package records

import "sort"

// UsageStat aggregates LLM requests sharing a key (purpose or model).
type UsageStat struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// UsageByPurpose groups reqs by purpose, sorted by call count descending.
func UsageByPurpose(reqs []LLMRequest) []UsageStat {
	return aggregate(reqs, func(r LLMRequest) string { return r.Purpose })
}

// UsageByModel groups reqs by model, sorted by call count descending.
func UsageByModel(reqs []LLMRequest) []UsageStat {
	return aggregate(reqs, func(r LLMRequest) string { return r.Model })
}

func aggregate(reqs []LLMRequest, key func(LLMRequest) string) []UsageStat {
	byKey := make(map[string]*UsageStat)
	var totalLatency = make(map[string]int64)
	for _, r := range reqs {
		k := key(r)
		st, ok := byKey[k]
		if !ok {
			st = &UsageStat{Key: k}
			byKey[k] = st
		}
		st.Calls++
		st.InputTokens += r.InputTokens
		st.OutputTokens += r.OutputTokens
		totalLatency[k] += r.LatencyMs
	}

	out := make([]UsageStat, 0, len(byKey))
	for k, st := range byKey {
		st.AvgLatencyMs = totalLatency[k] / int64(st.Calls)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Key < out[j].Key
	})
	return out
}
