package hook

import "sync"

// Sequential runs every hook in order and aggregates their results: the
// last non-Skipped result wins, except Cancel, which short-circuits the
// remaining hooks immediately.
type Sequential struct {
	HookName string
	Hooks    []Hook
}

func (s Sequential) Name() string { return s.HookName }

func (s Sequential) Point() Point {
	if len(s.Hooks) > 0 {
		return s.Hooks[0].Point()
	}
	return ""
}

func (s Sequential) Invoke(hc *Context) (Result, error) {
	result := ContinueResult()
	for _, h := range s.Hooks {
		res, err := h.Invoke(hc)
		if err != nil {
			return Result{}, err
		}
		if res.Kind == KindCancel {
			return res, nil
		}
		if res.Kind != KindSkipped {
			result = res
		}
	}
	return result, nil
}

// Parallel spawns every hook concurrently and waits for all of them.
// Precedence among the results follows Cancel > Replace > Redirect >
// Retry > Fork > Cache > Modified > Continue > Skipped, matching the
// severity order a caller would want to act on first.
type Parallel struct {
	HookName string
	Hooks    []Hook
}

func (p Parallel) Name() string { return p.HookName }

func (p Parallel) Point() Point {
	if len(p.Hooks) > 0 {
		return p.Hooks[0].Point()
	}
	return ""
}

var kindPriority = map[ResultKind]int{
	KindCancel:   0,
	KindReplace:  1,
	KindRedirect: 2,
	KindRetry:    3,
	KindFork:     4,
	KindCache:    5,
	KindModified: 6,
	KindContinue: 7,
	KindSkipped:  8,
}

func (p Parallel) Invoke(hc *Context) (Result, error) {
	results := make([]Result, len(p.Hooks))
	errs := make([]error, len(p.Hooks))

	var wg sync.WaitGroup
	wg.Add(len(p.Hooks))
	for i, h := range p.Hooks {
		go func(i int, h Hook) {
			defer wg.Done()
			// each hook observes the same Context snapshot; parallel
			// hooks must not mutate hc concurrently.
			results[i], errs[i] = h.Invoke(hc)
		}(i, h)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return Result{}, err
		}
	}

	best := SkippedResult()
	for _, r := range results {
		if kindPriority[r.Kind] < kindPriority[best.Kind] {
			best = r
		}
	}
	return best, nil
}

// FirstMatch invokes hooks in order and returns the first non-Skipped
// result without invoking the rest.
type FirstMatch struct {
	HookName string
	Hooks    []Hook
}

func (f FirstMatch) Name() string { return f.HookName }

func (f FirstMatch) Point() Point {
	if len(f.Hooks) > 0 {
		return f.Hooks[0].Point()
	}
	return ""
}

func (f FirstMatch) Invoke(hc *Context) (Result, error) {
	for _, h := range f.Hooks {
		res, err := h.Invoke(hc)
		if err != nil {
			return Result{}, err
		}
		if res.Kind != KindSkipped {
			return res, nil
		}
	}
	return SkippedResult(), nil
}

// Voting invokes every hook and returns the result Kind with the most
// votes. Threshold, when non-zero, requires that many votes instead of
// a simple majority; ties are broken by declaration order.
type Voting struct {
	HookName  string
	Hooks     []Hook
	Threshold int
}

func (v Voting) Name() string { return v.HookName }

func (v Voting) Point() Point {
	if len(v.Hooks) > 0 {
		return v.Hooks[0].Point()
	}
	return ""
}

func (v Voting) Invoke(hc *Context) (Result, error) {
	counts := map[ResultKind]int{}
	first := map[ResultKind]Result{}
	order := []ResultKind{}

	for _, h := range v.Hooks {
		res, err := h.Invoke(hc)
		if err != nil {
			return Result{}, err
		}
		if counts[res.Kind] == 0 {
			first[res.Kind] = res
			order = append(order, res.Kind)
		}
		counts[res.Kind]++
	}

	threshold := v.Threshold
	if threshold <= 0 {
		threshold = len(v.Hooks)/2 + 1
	}

	winner := SkippedResult()
	winnerVotes := 0
	for _, k := range order {
		if counts[k] >= threshold && counts[k] > winnerVotes {
			winner = first[k]
			winnerVotes = counts[k]
		}
	}
	return winner, nil
}
