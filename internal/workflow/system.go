package workflow

import "context"

// System is the orchestration entry point. It delegates to whichever Runner it is handed
// so workflow implementations can be swapped without touching callers.
type System struct{}

// Run runs r for keyword and returns its result unchanged.
func (System) Run(ctx context.Context, r Runner, keyword string) (*Result, error) {
	return r.Run(ctx, keyword)
}
