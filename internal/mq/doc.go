// Package mq публикует и потребляет события выполнения цепочек через RabbitMQ.
//
// Структура:
//   - connection.go — соединение с переподключением
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — конверт Message и публикация chain.executed
//   - consumer.go   — потребление очереди с ack/nack
//   - history.go    — обработчик, сохраняющий результаты в историю
//
// API публикует chain.executed после каждого выполнения, recorder
// читает очередь chain.history и пишет в хранилище.
package mq
