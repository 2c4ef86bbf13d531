// Package engine содержит чистые функции анализа цепочек.
//
// Включает:
//   - validate.go    — статическая валидация цепочки до выполнения
//   - urltemplate.go — анализ URL и предложение шаблонов, подстановка параметров
//   - jsonpath.go    — извлечение значения из JSON по пути ($.a.b[0])
//
// Ничего здесь не выполняет шаги и не меняет состояние: валидатор можно
// вызывать на каждое изменение цепочки, анализатор URL возвращает
// предложение, которое вызывающий волен принять или отбросить.
package engine
