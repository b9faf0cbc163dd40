// Package charm defines the lifecycle entity of the studio: a simulated
// programmable asset that moves draft -> ready_to_broadcast -> minted -> beamed.
package charm

import (
	"fmt"
	"strings"
	"time"
)

// Type is the kind of charm a prompt is forged into.
type Type string

const (
	TypeLogic      Type = "LOGIC"
	TypeFungible   Type = "FUNGIBLE"
	TypeStablecoin Type = "STABLECOIN"
	TypeXBTC       Type = "xBTC"
)

// Types lists every charm type in display order.
var Types = []Type{TypeLogic, TypeStablecoin, TypeXBTC, TypeFungible}

// Label returns the human-facing name used by the presentation layers.
func (t Type) Label() string {
	switch t {
	case TypeLogic:
		return "App Contract"
	case TypeStablecoin:
		return "Self-Auditing Stablecoin"
	case TypeXBTC:
		return "Unchained Bitcoin (xBTC)"
	case TypeFungible:
		return "eUTXO Token"
	default:
		return string(t)
	}
}

// ParseType accepts a charm type case-insensitively.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown charm type %q (valid: %v)", s, Types)
}

// Status is a charm's position in its lifecycle.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusProving          Status = "proving"
	StatusReadyToBroadcast Status = "ready_to_broadcast"
	StatusMinted           Status = "minted"
	StatusBeaming          Status = "beaming"
	StatusBeamed           Status = "beamed"
)

// lifecycle is the only order statuses are ever assigned in. Proving and
// beaming are never stored on a charm.
var lifecycle = []Status{StatusDraft, StatusReadyToBroadcast, StatusMinted, StatusBeamed}

// Rank returns the position of s in the lifecycle, or -1 for transient labels.
func (s Status) Rank() int {
	for i, st := range lifecycle {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the status that follows s, and false when s is terminal or transient.
func (s Status) Next() (Status, bool) {
	r := s.Rank()
	if r < 0 || r == len(lifecycle)-1 {
		return "", false
	}
	return lifecycle[r+1], true
}

// CanAdvanceTo reports whether moving from s to next is exactly one lifecycle step.
func (s Status) CanAdvanceTo(next Status) bool {
	n, ok := s.Next()
	return ok && n == next
}

// Chain is a ledger a charm can live on.
type Chain string

const (
	ChainBitcoin  Chain = "Bitcoin"
	ChainCardano  Chain = "Cardano"
	ChainDogecoin Chain = "Dogecoin"
)

// Chains lists the known ledgers.
var Chains = []Chain{ChainBitcoin, ChainCardano, ChainDogecoin}

// ParseChain accepts a chain name case-insensitively.
func ParseChain(s string) (Chain, error) {
	for _, c := range Chains {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown chain %q (valid: %v)", s, Chains)
}

// Source is one citation returned alongside generated content.
type Source struct {
	URI   string `json:"uri" yaml:"uri"`
	Title string `json:"title" yaml:"title"`
}

// Charm is the lifecycle entity. Values are copied in and out of the store;
// a Charm held by a caller is a snapshot.
type Charm struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Status    Status    `json:"status"`

	// Populated when the prove phase completes.
	CommitTx     string `json:"commitTx,omitempty"`
	SpellTx      string `json:"spellTx,omitempty"`
	TxID         string `json:"txId,omitempty"`
	AppID        string `json:"appId,omitempty"`
	VK           string `json:"vk,omitempty"`
	OwnerAddress string `json:"ownerAddress,omitempty"`

	CurrentChain     Chain `json:"currentChain"`
	DestinationChain Chain `json:"destinationChain,omitempty"`
}

// Clone returns a deep copy so callers can't alias the store's source slice.
func (c Charm) Clone() Charm {
	if c.Sources != nil {
		c.Sources = append([]Source(nil), c.Sources...)
	}
	return c
}

const titleLimit = 30

// TitleFromPrompt truncates a prompt to the 30 character title shown on cards.
func TitleFromPrompt(prompt string) string {
	r := []rune(prompt)
	if len(r) > titleLimit {
		return string(r[:titleLimit]) + "..."
	}
	return prompt
}
