// Package model defines the ledger data structures shared by every layer.
package model

import "slices"

// Wallet is a user's ledger: categories, budgets and operation history.
type Wallet struct {
	Budgets    map[string]float64 `json:"budgets"`
	Categories []string           `json:"categories"`
	Operations []Operation        `json:"operations"`
}

// NewWallet returns an empty wallet.
func NewWallet() *Wallet {
	return &Wallet{
		Budgets:    make(map[string]float64),
		Categories: []string{},
		Operations: []Operation{},
	}
}

// HasCategory reports whether name is in the category set. Matching is exact.
func (w *Wallet) HasCategory(name string) bool {
	return slices.Contains(w.Categories, name)
}

// Clone returns a deep copy of the wallet.
func (w *Wallet) Clone() *Wallet {
	c := &Wallet{
		Budgets:    make(map[string]float64, len(w.Budgets)),
		Categories: slices.Clone(w.Categories),
		Operations: slices.Clone(w.Operations),
	}
	for k, v := range w.Budgets {
		c.Budgets[k] = v
	}
	if c.Categories == nil {
		c.Categories = []string{}
	}
	if c.Operations == nil {
		c.Operations = []Operation{}
	}
	return c
}
