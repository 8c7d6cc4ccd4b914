package cart

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearthbakery/storefront/internal/domain"
)

const snapshotVersion = 1

// State is the cart session as seen by callers. Loading is never persisted.
// CheckoutStartedAt survives line edits and is only reset when the cart is
// cleared.
type State struct {
	Lines             []domain.CartLine `json:"lines"`
	CartID            *string           `json:"cartId,omitempty"`
	CheckoutURL       *string           `json:"checkoutUrl,omitempty"`
	CheckoutStartedAt *time.Time        `json:"checkoutStartedAt,omitempty"`
	ClientCartID      string            `json:"clientCartId"`
	Loading           bool              `json:"-"`
	Open              bool              `json:"isOpen"`
}

type snapshot struct {
	Version int `json:"version"`
	State
}

type snapshotHeader struct {
	Version      int    `json:"version"`
	ClientCartID string `json:"clientCartId"`
}

func encodeSnapshot(s State) ([]byte, error) {
	data, err := json.Marshal(snapshot{Version: snapshotVersion, State: s})
	if err != nil {
		return nil, fmt.Errorf("marshal cart snapshot failed: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (State, error) {
	var h snapshotHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return State{}, fmt.Errorf("unmarshal cart snapshot failed: %w", err)
	}
	if h.Version != snapshotVersion {
		return State{}, &VersionError{Version: h.Version, ClientCartID: h.ClientCartID}
	}

	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("unmarshal cart snapshot failed: %w", err)
	}

	// Lines written by an older build may violate the quantity bounds.
	lines := make([]domain.CartLine, 0, len(s.Lines))
	seen := make(map[string]bool, len(s.Lines))
	for _, l := range s.Lines {
		if l.VariantID == "" || seen[l.VariantID] {
			continue
		}
		l.Quantity = l.Clamp(l.Quantity)
		if l.Quantity <= 0 {
			continue
		}
		seen[l.VariantID] = true
		lines = append(lines, l)
	}
	s.State.Lines = lines
	s.State.Loading = false
	return s.State, nil
}

func (s State) clone() State {
	out := s
	out.Lines = make([]domain.CartLine, len(s.Lines))
	for i, l := range s.Lines {
		if l.AvailableQuantity != nil {
			q := *l.AvailableQuantity
			l.AvailableQuantity = &q
		}
		if l.SelectedOptions != nil {
			l.SelectedOptions = append([]domain.SelectedOption(nil), l.SelectedOptions...)
		}
		out.Lines[i] = l
	}
	if s.CartID != nil {
		v := *s.CartID
		out.CartID = &v
	}
	if s.CheckoutURL != nil {
		v := *s.CheckoutURL
		out.CheckoutURL = &v
	}
	if s.CheckoutStartedAt != nil {
		v := *s.CheckoutStartedAt
		out.CheckoutStartedAt = &v
	}
	return out
}
