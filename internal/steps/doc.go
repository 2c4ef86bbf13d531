// Package steps содержит реализации типов шагов цепочки.
//
// # Обзор
//
// Шаг — чистое преобразование текста: получает вход (выход предыдущего
// шага), параметры из domain.Step и снимок ключей, возвращает выход
// для следующего шага. Шаги не знают о цепочке целиком.
//
// # Интерфейс Step
//
//	type Step interface {
//	    Type() domain.StepType
//	    Execute(ctx context.Context, req *Request) (*Response, error)
//	}
//
// Request содержит:
//   - Step  — определение шага (тип и типизированные параметры)
//   - Input — текущий текст
//   - Keys  — снимок сохранённых ключей (keys.Snapshot)
//
// Response содержит:
//   - Output   — результат
//   - Warnings — некритичные замечания
//
// # Registry
//
//	registry := steps.DefaultRegistry(rsacrypto.NewProvider())
//	step, err := registry.Get(domain.StepTypeBase64Encode)
//	if err != nil {
//	    // ErrUnsupportedStepType
//	}
//
// DefaultRegistry регистрирует все типы из domain.AllStepTypes.
//
// # Типы шагов
//
//   - url-encode / url-decode       — encoding.go
//   - base64-encode / base64-decode — encoding.go
//   - rsa-encrypt / rsa-decrypt     — rsa.go
//   - http-parse / http-build       — http.go
//
// # Обработка ошибок
//
// Ошибка из Execute — ошибка шага, а не инфраструктуры: исполнитель
// цепочки записывает её в StepResult и останавливает цепочку.
//
//	var (
//	    ErrUnsupportedStepType      // тип не зарегистрирован
//	    ErrInvalidParams            // параметры не подходят
//	    ErrMissingKeyID             // RSA шаг без keyId
//	    ErrMalformedPercentEncoding // url-decode
//	    ErrInvalidBase64            // base64-decode
//	)
//
// Ошибки RSA расшифровки приходят как *rsacrypto.DecryptError с подсказкой.
package steps
