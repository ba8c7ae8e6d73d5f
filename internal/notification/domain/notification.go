package domain

import (
	"errors"
	"fmt"
)

var ErrNoRecipient = errors.New("notification has no recipient")

type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindLowStock          Kind = "low_stock"
	KindOutOfStock        Kind = "out_of_stock"
)

type Notification struct {
	Kind      Kind
	Recipient string
	Subject   string
	Body      string
}

func OrderConfirmation(email, orderNumber string) Notification {
	return Notification{
		Kind:      KindOrderConfirmation,
		Recipient: email,
		Subject:   "Order Confirmation",
		Body:      fmt.Sprintf("Hi,\n\nThank you for your order. Your order number is %s.\n", orderNumber),
	}
}

func LowStock(ops, sku string, quantity int) Notification {
	return Notification{
		Kind:      KindLowStock,
		Recipient: ops,
		Subject:   "Low stock: " + sku,
		Body:      fmt.Sprintf("Only %d units of %s are left.\n", quantity, sku),
	}
}

func OutOfStock(ops, sku string) Notification {
	return Notification{
		Kind:      KindOutOfStock,
		Recipient: ops,
		Subject:   "Out of stock: " + sku,
		Body:      fmt.Sprintf("%s is out of stock.\n", sku),
	}
}
