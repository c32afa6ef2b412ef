package rabbitmq

// RoutingStatusChanged - ключ события смены статуса абонемента.
const RoutingStatusChanged = "client.status_changed"

// QueueConfig - очередь и ключ её привязки к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// ClientQueues возвращает очереди событий о клиентах.
func ClientQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "clients.status_changed", RoutingKey: RoutingStatusChanged},
	}
}
