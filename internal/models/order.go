package models

import "time"

const (
	OrderStatusUnprocessed = "unprocessed"
	OrderStatusCollected   = "order collected"
	OrderStatusHandedOver  = "handed over to the courier"
	OrderStatusCompleted   = "completed"
)

const (
	PaymentElectronically = "electronically"
	PaymentInCash         = "in_cash"
)

// Order identity for intake is the full customer tuple: a repeated submission
// with the same address and customer fields lands on the same row.
type Order struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"                             json:"id"`
	Status        string     `gorm:"size:30;not null;default:'unprocessed';index"         json:"status"`
	Address       string     `gorm:"size:200;not null;uniqueIndex:idx_order_customer"     json:"address"`
	Firstname     string     `gorm:"size:100;not null;uniqueIndex:idx_order_customer"     json:"firstname"`
	Lastname      string     `gorm:"size:100;not null;uniqueIndex:idx_order_customer"     json:"lastname"`
	Phonenumber   string     `gorm:"size:32;not null;uniqueIndex:idx_order_customer"      json:"phonenumber"`
	Comment       string     `gorm:"size:200"                                             json:"comment,omitempty"`
	RegisteredAt  time.Time  `gorm:"autoCreateTime;index"                                 json:"registered_at"`
	CalledAt      *time.Time `json:"called_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	PaymentMethod string     `gorm:"size:30;not null;default:'in_cash';index"             json:"payment_method"`
	RestaurantID  *uint      `gorm:"index"                                                json:"restaurant_id,omitempty"`
	Restaurant    *Restaurant `gorm:"foreignKey:RestaurantID"                             json:"-"`

	Elements []OrderElement `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"elements,omitempty"`
}

// OrderElement keeps a price snapshot (unit price times quantity, captured at
// creation), so later product price edits do not rewrite order history.
type OrderElement struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"                         json:"id"`
	OrderID   uint    `gorm:"not null;uniqueIndex:idx_order_element"           json:"order_id"`
	ProductID uint    `gorm:"not null;uniqueIndex:idx_order_element"           json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	Quantity  int     `gorm:"not null;check:quantity >= 1;index"               json:"quantity"`
	Price     float64 `gorm:"type:decimal(8,2);not null;check:price >= 0"      json:"price"`
}
