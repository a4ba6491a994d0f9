// Package steps — каталог фабрик готовых шагов конвейера.
//
// Фабрика строит domain.StepFunc из декларативной конфигурации.
// Это позволяет собирать конвейеры через API и CLI, где код шага
// написать нельзя.
//
// # Типы шагов
//
// ## delay
//
// Пауза между шагами.
//
//	{"duration_sec": 5}   // или
//	{"duration_ms": 500}
//
// Outputs: {"delayed_ms": 5000}
//
// ## template
//
// Рендеринг Go templates над input и накопленными results.
//
//	{
//	    "mappings": {
//	        "greeting": "hello, {{ .Input.name }}",
//	        "total":    "{{ .Results.count }}"
//	    }
//	}
//
// Outputs — результат рендеринга каждого mapping.
//
// ## probe-http
//
// HTTP-проба внешнего сервиса.
//
//	{
//	    "url": "https://api.example.com/health",
//	    "method": "GET",
//	    "timeout_sec": 10,
//	    "expect_status": 200
//	}
//
// Outputs: {"status_code": 200, "body": ...}
//
// Retry-логика остаётся в executor: шаги просто возвращают ошибки.
package steps
