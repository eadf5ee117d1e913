package rabbitmq

import (
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/parking-ledger/internal/models"
)

// ReceiptRoutingKey — ключ маршрутизации квитанций о закрытых стоянках.
const ReceiptRoutingKey = "closed"

// ReceiptPublisher публикует квитанции о завершённых стоянках
// в обменник receipts для внешних потребителей (печать чеков, экспорт).
type ReceiptPublisher struct {
	ch *amqp.Channel
}

// NewReceiptPublisher создает публикатор квитанций поверх открытого канала.
func NewReceiptPublisher(ch *amqp.Channel) *ReceiptPublisher {
	return &ReceiptPublisher{ch: ch}
}

// PublishReceipt отправляет запись журнала в очередь квитанций.
func (p *ReceiptPublisher) PublishReceipt(entry models.LedgerEntry) error {
	return PublishMessage(p.ch, Exchange, ReceiptRoutingKey, entry)
}
