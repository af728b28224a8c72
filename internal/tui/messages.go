package tui

import "github.com/Veraticus/finflow/internal/model"

// refreshedMsg reports the end of a refresh.
type refreshedMsg struct {
	connectivity model.Connectivity
}
