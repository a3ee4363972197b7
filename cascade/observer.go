package cascade

// MultiObserver fans out every Observer call to each entry in order,
// so an Engine can report to more than one collaborator (a metrics
// sink and a tracer, say) through its single Observer field.
type MultiObserver []Observer

func (m MultiObserver) OnAttempt(def *Definition, a Attempt) {
	for _, o := range m {
		if o != nil {
			o.OnAttempt(def, a)
		}
	}
}

func (m MultiObserver) OnSkip(def *Definition, s SkippedTier) {
	for _, o := range m {
		if o != nil {
			o.OnSkip(def, s)
		}
	}
}

func (m MultiObserver) OnComplete(def *Definition, r *Result) {
	for _, o := range m {
		if o != nil {
			o.OnComplete(def, r)
		}
	}
}

func (m MultiObserver) OnExhausted(def *Definition, err *ExhaustedError) {
	for _, o := range m {
		if o != nil {
			o.OnExhausted(def, err)
		}
	}
}

var _ Observer = MultiObserver(nil)
