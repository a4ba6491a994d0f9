// Package state владеет состоянием выполнения конвейеров.
//
// Для каждого конвейера хранится статус (конечный автомат из
// domain.Status), накопленные results и последняя ошибка. Все
// чтения и записи защищены мьютексом: несколько конвейеров могут
// выполняться одновременно, а статус и метрики читаются конкурентно
// с выполнением.
//
// Пауза кооперативная: цикл выполнения опрашивает статус перед
// каждым шагом через AwaitRunning и не прерывает шаг, который уже
// выполняется. Ожидание в PAUSED не держит мьютекс.
package state
