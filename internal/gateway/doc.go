// Package gateway — граница между worker и БД импорта.
//
// Gateway оборачивает репозитории из internal/repo и гарантирует, что
// ни одна ошибка БД не выйдет за его пределы: каждая ошибка логируется,
// учитывается в метрике import_worker_store_errors_total и превращается
// в sentinel-результат (false / 0 / пустой batch) с флагом ok=false.
//
// Решение, что делать с неизвестным результатом (продолжать или
// останавливать фазу), принимает вызывающая сторона — см.
// batch.StoreErrorPolicy.
package gateway
