// Package chain выполняет цепочки шагов.
//
// Включает:
//   - executor.go — StepExecutor (один шаг → StepResult) и Executor
//     (последовательное выполнение с остановкой на первой ошибке)
//   - service.go  — Service: снимок ключей на каждый запуск, шаблоны,
//     запись результата в историю
//
// Шаги выполняются строго последовательно: вход каждого шага — выход
// предыдущего. Параллельные цепочки не разделяют изменяемого состояния,
// общими остаются только реестр шагов и снимки ключей (только чтение).
package chain
