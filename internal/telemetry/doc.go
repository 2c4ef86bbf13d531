// Package telemetry — логирование и метрики сервисов Cipherchain.
//
// logging.go настраивает slog по LOG_LEVEL/LOG_FORMAT и даёт хелперы
// для полей chain_id, template_id, step_id. metrics.go регистрирует
// счётчики цепочек и шагов и гистограмму длительности шагов; api и
// recorder отдают их на /metrics.
package telemetry
