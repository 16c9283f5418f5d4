package model

import "time"

// User is a registered wallet owner.
type User struct {
	CreatedAt    time.Time
	Login        string
	PasswordHash string
}

// Session binds an authenticated login to its loaded wallet.
type Session struct {
	Wallet *Wallet
	Login  string
}
