package ports

import "context"

// PreferenceStore remembers user toggles across runs. ok is false when the
// user never changed the setting.
type PreferenceStore interface {
	VoiceEnabled(ctx context.Context) (enabled bool, ok bool, err error)
	SaveVoiceEnabled(ctx context.Context, enabled bool) error
}
