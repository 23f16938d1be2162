package activity

// ToggleEmitter notifies the owning list that the user flipped the sync
// toggle for an activity. It is a one-way signal.
type ToggleEmitter interface {
	ActivityToggled(a Activity, enabled bool)
}

// ToggleEmitterFunc adapts a function to ToggleEmitter.
type ToggleEmitterFunc func(a Activity, enabled bool)

// ActivityToggled calls f.
func (f ToggleEmitterFunc) ActivityToggled(a Activity, enabled bool) {
	if f != nil {
		f(a, enabled)
	}
}
