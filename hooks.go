package tabulate

// RowHook observes each record before it is rendered, with its zero-based
// index in the render.
type RowHook func(rec Record, index int)

// hooks holds lifecycle callbacks. They run synchronously, in registration
// order, on the goroutine calling Render.
type hooks struct {
	beforeRender []func()
	row          []RowHook
	afterRender  []func()
	complete     []func()
}

func (h hooks) clone() hooks {
	return hooks{
		beforeRender: append([]func(){}, h.beforeRender...),
		row:          append([]RowHook{}, h.row...),
		afterRender:  append([]func(){}, h.afterRender...),
		complete:     append([]func(){}, h.complete...),
	}
}

func fire(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

func (h hooks) fireRow(rec Record, index int) {
	for _, fn := range h.row {
		fn(rec, index)
	}
}
