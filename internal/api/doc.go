// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с зависимостями (сервис цепочек, хранилища)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — recovery, request id, логирование
//   - response.go         — JSON-ответы и отображение ошибок хранилища
//   - dto.go              — запросы и ответы
//   - chain_handler.go    — /chains и /urls
//   - key_handler.go      — /keys
//   - template_handler.go — /templates
//   - history_handler.go  — /history
package api
