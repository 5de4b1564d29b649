package entity

const (
	DeliveryStatusSent   int16 = 10
	DeliveryStatusFailed int16 = 50
)

type Delivery struct {
	MessageID string
	Recipient string
	Subject   string
	Template  string
	Status    int16
}
