package domain

const Topic = "inventory-events"

const (
	TypeInventoryAdjusted = "InventoryAdjusted"
	TypeInventoryLow      = "InventoryLow"
	TypeInventoryDepleted = "InventoryDepleted"
)

type InventoryAdjusted struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (InventoryAdjusted) Topic() string { return Topic }
func (e InventoryAdjusted) Key() string { return e.SKU }
func (InventoryAdjusted) Type() string  { return TypeInventoryAdjusted }

type InventoryLow struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (InventoryLow) Topic() string { return Topic }
func (e InventoryLow) Key() string { return e.SKU }
func (InventoryLow) Type() string  { return TypeInventoryLow }

type InventoryDepleted struct {
	SKU string `json:"sku"`
}

func (InventoryDepleted) Topic() string { return Topic }
func (e InventoryDepleted) Key() string { return e.SKU }
func (InventoryDepleted) Type() string  { return TypeInventoryDepleted }

// Event is the wire contract shared by every inventory event.
type Event interface {
	Topic() string
	Key() string
	Type() string
}

// StockAlert picks the alert, if any, for the quantity left after a
// reservation. Depleted supersedes low so only one alert goes out.
func StockAlert(sku string, remaining, lowThreshold int) (Event, bool) {
	switch {
	case remaining == 0:
		return InventoryDepleted{SKU: sku}, true
	case remaining <= lowThreshold:
		return InventoryLow{SKU: sku, Quantity: remaining}, true
	default:
		return nil, false
	}
}
