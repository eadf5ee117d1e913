package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации квитанций.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetReceiptQueues возвращает очереди потребителей квитанций.
func GetReceiptQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "receipt.closed", RoutingKey: "closed"},
		// при необходимости дополнительные очереди для других потребителей
	}
}
