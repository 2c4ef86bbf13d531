// Package cli реализует инструмент командной строки Cipherchain.
//
// # Обзор
//
// CLI работает с Cipherchain API по HTTP. Из внутренних пакетов
// импортируются только типы данных (domain, engine), чтобы формат шагов
// и результатов не расходился с сервером.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент API. Раскладывает конверт {"data": ...} и превращает
// {"error": {...}} в *APIError.
//
//	client := cli.NewClient("http://localhost:8080")
//	res, err := client.ExecuteChain(ctx, steps, "hello")
//
// ## Output
//
// Таблицы (text/tabwriter) по умолчанию, JSON с флагом --json.
// Данные идут в stdout, сообщения в stderr, поэтому выход цепочки
// можно передавать дальше по pipe:
//
//	echo -n secret | cipherchain chain run --steps enc.yaml | base64 -d
//
// ## Commands
//
//   - chain: run, validate
//   - url: analyze
//   - key: list, show, generate, import, delete
//   - template: list, show, run, delete, export, import
//   - history: list, delete, clear
//
// Файлы шагов и шаблонов принимаются в JSON и YAML (gopkg.in/yaml.v3).
// Входной текст берётся из --input или из stdin, если stdin не терминал.
//
// Каждая группа создаётся фабрикой (NewChainCmd и т.д.), принимающей
// clientFn и outputFn: Client и Output создаются после разбора
// PersistentFlags.
package cli
