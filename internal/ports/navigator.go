package ports

import "github.com/bnema/visionary-cli/internal/domain"

// Navigator moves the user interface between a session view and the home view.
type Navigator interface {
	ShowSession(id domain.SessionID)
	ShowHome()
}
