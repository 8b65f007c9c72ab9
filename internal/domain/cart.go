package domain

import (
	"strings"
	"time"
)

// CartOwner identifies whose cart a line belongs to. Exactly one of UserID and
// SessionID is set.
type CartOwner struct {
	UserID    string
	SessionID string
}

func UserOwner(userID string) CartOwner { return CartOwner{UserID: strings.TrimSpace(userID)} }
func SessionOwner(sessionID string) CartOwner {
	return CartOwner{SessionID: strings.TrimSpace(sessionID)}
}

// Validate rejects owners with neither or both identifiers set.
func (o CartOwner) Validate() error {
	user := strings.TrimSpace(o.UserID) != ""
	session := strings.TrimSpace(o.SessionID) != ""
	switch {
	case user && session:
		return Invalid("owner", "exactly one of user id and session id must be set")
	case !user && !session:
		return Invalid("owner", "user id or session id is required")
	}
	return nil
}

// IsUser applies the same blank test as Validate, so a whitespace user id
// never selects the user column.
func (o CartOwner) IsUser() bool { return strings.TrimSpace(o.UserID) != "" }

func (o CartOwner) String() string {
	if o.IsUser() {
		return "user:" + o.UserID
	}
	return "session:" + o.SessionID
}

// CartLine is one variant held in an owner's cart. Price, options and title
// are copied from the catalog when the line is created.
type CartLine struct {
	ID           string    `json:"id"`
	UserID       *string   `json:"user_id,omitempty"`
	SessionID    *string   `json:"session_id,omitempty"`
	ProductID    string    `json:"product_id"`
	VariantID    string    `json:"variant_id"`
	Option1      string    `json:"option1,omitempty"`
	Option2      string    `json:"option2,omitempty"`
	ProductTitle string    `json:"product_title"`
	Quantity     int       `json:"quantity"`
	Price        int64     `json:"price"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (l CartLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// OwnedBy reports whether the line belongs to owner.
func (l CartLine) OwnedBy(owner CartOwner) bool {
	if owner.IsUser() {
		return l.UserID != nil && *l.UserID == strings.TrimSpace(owner.UserID)
	}
	return l.SessionID != nil && *l.SessionID == strings.TrimSpace(owner.SessionID)
}

// Cart is the read model of an owner's unexpired lines.
type Cart struct {
	Lines    []CartLine `json:"items"`
	Total    int64      `json:"total"`
	Quantity int        `json:"quantity"`
}

// NewCart totals lines.
func NewCart(lines []CartLine) Cart {
	c := Cart{Lines: lines}
	if c.Lines == nil {
		c.Lines = []CartLine{}
	}
	for _, l := range lines {
		c.Total += l.Subtotal()
		c.Quantity += l.Quantity
	}
	return c
}

// MergeResult lists the guest line ids handled by a login merge.
type MergeResult struct {
	Combined   []string `json:"combined"`
	Reassigned []string `json:"reassigned"`
	Skipped    []string `json:"skipped"`
}
