package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerStatus represents the billing status of a customer
type CustomerStatus string

const (
	CustomerActive    CustomerStatus = "active"
	CustomerSuspended CustomerStatus = "suspended"
)

// Customer represents a subscriber whose network service follows billing state
type Customer struct {
	ID            uuid.UUID
	Username      string
	Name          string
	Phone         string
	PPPoEUsername string
	// PPPoEProfile overrides the package profile on restore when set
	PPPoEProfile   string
	PackageID      *uuid.UUID
	BillingDay     int // day-of-month used for invoice due dates, clamped to [1,28]
	AutoSuspension bool
	Status         CustomerStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasRouterIdentity reports whether the customer has a PPPoE secret to act on
func (c *Customer) HasRouterIdentity() bool {
	return c.PPPoEUsername != ""
}

// BillingDayClamped returns the billing day clamped to the valid [1,28] range
func (c *Customer) BillingDayClamped() int {
	if c.BillingDay < 1 {
		return 1
	}
	if c.BillingDay > 28 {
		return 28
	}
	return c.BillingDay
}
