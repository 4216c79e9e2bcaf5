package entity

import "time"

// User owns tracked flights and receives notifications
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AirlineCredential is a linked airline account used by the automation channel
type AirlineCredential struct {
	ID            uint
	UserID        string
	AirlineCode   string
	AccountNumber string
	Username      string
	Password      string
	FirstName     string
	LastName      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
