// Package config собирает конфигурацию import-worker из переменных окружения.
//
// Перед чтением окружения подгружается необязательный файл .env
// (github.com/joho/godotenv). Уже заданные переменные окружения
// имеют приоритет над .env.
//
// Config создаётся один раз в main и передаётся конструкторам;
// глобального состояния пакет не держит.
package config
