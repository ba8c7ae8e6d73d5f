package domain

const (
	TopicOrderPlaced = "order-placed"
	TypeOrderPlaced  = "OrderPlaced"
)

type OrderPlaced struct {
	OrderNumber   string `json:"order_number"`
	CustomerEmail string `json:"customer_email"`
}

func (OrderPlaced) Topic() string { return TopicOrderPlaced }
func (e OrderPlaced) Key() string { return e.OrderNumber }
func (OrderPlaced) Type() string  { return TypeOrderPlaced }
