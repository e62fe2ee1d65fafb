// Package lock — advisory lock на пару (job, phase) в Redis.
//
// Lock не обязателен для корректности: worker по-прежнему рассчитывает,
// что одну фазу импорта выполняет один consumer. Lock лишь сужает окно,
// когда две доставки одной команды обрабатываются одновременно.
//
// Захват: SET key token NX PX ttl. Пока lock удерживается, lease
// продлевается каждые ttl/3. Освобождение — Lua-скрипт compare-and-delete,
// чтобы не удалить чужой lock после истечения своего.
package lock
