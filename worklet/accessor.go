package worklet

import "fmt"

// AcquireInputView returns a BlockSize window at the module's input pointer.
func AcquireInputView(m Module) (View, error) {
	ptr, err := m.SampleInPtr()
	if err != nil {
		return View{}, fmt.Errorf("sample_in_ptr: %w", err)
	}
	return NewView(m.Memory(), ptr, BlockSize)
}

// AcquireOutputView returns a window at the module's output pointer, sized by
// the length the module reports now. The length stays fixed for the returned
// view.
func AcquireOutputView(m Module) (View, error) {
	ptr, err := m.FreqOutPtr()
	if err != nil {
		return View{}, fmt.Errorf("freq_out_ptr: %w", err)
	}
	n, err := m.FreqOutLen()
	if err != nil {
		return View{}, fmt.Errorf("freq_out_len: %w", err)
	}
	return NewView(m.Memory(), ptr, int(n))
}
