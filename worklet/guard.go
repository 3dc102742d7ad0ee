package worklet

// ValidView returns current if it still refers to the live store, otherwise
// the view produced by reacquire. A stale view is expected after the module
// grows its memory and is not an error; only a failing reacquire is.
func ValidView(current View, reacquire func() (View, error)) (View, error) {
	if !current.Stale() {
		return current, nil
	}
	return reacquire()
}
