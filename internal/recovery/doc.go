// Package recovery — generic диспетчер восстановления после ошибок.
//
// Диспетчер не знает ничего о конвейерах: он классифицирует ошибку
// по закрытому набору видов (domain.RecoveryKind), запускает
// соответствующую стратегию и документирует исход. Каждый вызов
// Handle — успешный или нет — порождает одну неизменяемую запись
// ErrorRecord в append-only хранилище.
//
// Стратегия выполняется не более одного раза за вызов. Паника или
// вторичная ошибка стратегии не распространяется наружу: исход
// фиксируется как recovery_attempted=true, recovery_successful=false
// со вторичной ошибкой внутри.
package recovery
