// Package cli реализует инструмент командной строки pipectl.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с pipelined API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления конвейерами, журналом ошибок
// и триггерами.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для pipelined API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	pipelines, err := client.ListPipelines()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: pipectl pipeline list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - pipeline: list, create, show, execute, pause, resume, reset, delete, results
//   - record:   list, show, report
//   - trigger:  list, create, delete, enable, disable
//
// Каждая группа создаётся через фабричную функцию (NewPipelineCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
