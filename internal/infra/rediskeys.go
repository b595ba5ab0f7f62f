package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "leadops"
)

// Ключи для Cache (состояние)
const (
	// RedisKeyHealthSnapshot — последний применённый снимок здоровья,
	// используется для тёплого старта консоли после рестарта.
	RedisKeyHealthSnapshot = RedisNamespace + ":console:health_snapshot"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanStatusTransitions — канал переходов статуса системы ("OLD:NEW").
	RedisChanStatusTransitions = RedisNamespace + ":console:status-signal"
	// RedisChanActionOutcomes — канал исходов действий оператора ("name:SUCCESS|FAILED").
	RedisChanActionOutcomes = RedisNamespace + ":console:action-signal"
)
