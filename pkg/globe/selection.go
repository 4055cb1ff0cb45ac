package globe

import "adisglobe/pkg/model"

func (h *Host) setSelection(sel *model.Selection) {
	h.snapMu.Lock()
	h.selection = sel
	h.snapMu.Unlock()
}

// Selection returns the active selection, if any.
func (h *Host) Selection() (model.Selection, bool) {
	h.snapMu.RLock()
	defer h.snapMu.RUnlock()
	if h.selection == nil {
		return model.Selection{}, false
	}
	return *h.selection, true
}

// Dismiss clears the active selection and notifies OnDismiss on the render
// goroutine. It reports whether there was a selection to clear.
func (h *Host) Dismiss() bool {
	h.snapMu.Lock()
	had := h.selection != nil
	h.selection = nil
	h.snapMu.Unlock()
	if had && h.opts.OnDismiss != nil {
		h.Post(h.opts.OnDismiss)
	}
	return had
}
