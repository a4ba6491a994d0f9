// Package engine валидирует определения конвейеров.
//
// Валидация — один проход слева направо по объявленному порядку
// шагов: каждый ключ из requires должен быть произведён одним из
// предыдущих шагов. Это не топологическая сортировка: порядок
// объявления и есть порядок выполнения, валидатор лишь отклоняет
// определения, ссылающиеся на ещё не произведённые ключи.
//
// Ошибки зависимостей обнаруживаются при создании конвейера,
// а не во время выполнения.
package engine
