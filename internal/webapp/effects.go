package webapp

import (
	"sync"

	"go.uber.org/zap"
)

// EffectType names a host directive.
type EffectType string

const (
	EffectReady               EffectType = "ready"
	EffectExpand              EffectType = "expand"
	EffectClose               EffectType = "close"
	EffectClosingConfirmation EffectType = "enable_closing_confirmation"
	EffectMainButtonShow      EffectType = "main_button.show"
	EffectMainButtonHide      EffectType = "main_button.hide"
	EffectMainButtonText      EffectType = "main_button.set_text"
	EffectBackButtonShow      EffectType = "back_button.show"
	EffectBackButtonHide      EffectType = "back_button.hide"
	EffectHapticImpact        EffectType = "haptic.impact"
	EffectHapticNotification  EffectType = "haptic.notification"
	EffectHapticSelection     EffectType = "haptic.selection"
	EffectNavigate            EffectType = "navigate"
)

// Haptic styles.
const (
	ImpactLight  = "light"
	ImpactMedium = "medium"
	ImpactHeavy  = "heavy"

	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// Effect is a single directive for the client.
type Effect struct {
	Type  EffectType `json:"type"`
	Value string     `json:"value,omitempty"`
}

// Effects collects the directives of one screen action. A non-recording
// recorder only logs them.
type Effects struct {
	mu      sync.Mutex
	record  bool
	effects []Effect
	logger  *zap.Logger
}

func newEffects(record bool, logger *zap.Logger) *Effects {
	return &Effects{record: record, logger: logger}
}

func (e *Effects) add(t EffectType, value string) {
	if e == nil {
		return
	}
	if !e.record {
		e.logger.Debug("Host effect", zap.String("type", string(t)), zap.String("value", value))
		return
	}
	e.mu.Lock()
	e.effects = append(e.effects, Effect{Type: t, Value: value})
	e.mu.Unlock()
}

func (e *Effects) Ready() { e.add(EffectReady, "") }
func (e *Effects) Expand() { e.add(EffectExpand, "") }
func (e *Effects) Close() { e.add(EffectClose, "") }
func (e *Effects) EnableClosingConfirmation() { e.add(EffectClosingConfirmation, "") }
func (e *Effects) HideMainButton() { e.add(EffectMainButtonHide, "") }
func (e *Effects) SetMainButtonText(t string) { e.add(EffectMainButtonText, t) }
func (e *Effects) ShowBackButton() { e.add(EffectBackButtonShow, "") }
func (e *Effects) HideBackButton() { e.add(EffectBackButtonHide, "") }
func (e *Effects) SelectionChanged() { e.add(EffectHapticSelection, "") }
func (e *Effects) Navigate(path string) { e.add(EffectNavigate, path) }

// ShowMainButton sets the label and shows the main button.
func (e *Effects) ShowMainButton(text string) {
	e.add(EffectMainButtonText, text)
	e.add(EffectMainButtonShow, "")
}

func (e *Effects) ImpactOccurred(style string) {
	if style == "" {
		style = ImpactLight
	}
	e.add(EffectHapticImpact, style)
}

func (e *Effects) NotificationOccurred(kind string) {
	if kind == "" {
		kind = NotificationSuccess
	}
	e.add(EffectHapticNotification, kind)
}

// List returns the recorded directives, never nil.
func (e *Effects) List() []Effect {
	if e == nil {
		return []Effect{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Effect{}, e.effects...)
}
