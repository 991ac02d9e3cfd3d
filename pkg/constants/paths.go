package constants

// Пути health и ready (остальные маршруты регистрируются в router).
const (
	PathHealth = "/health"
	PathReady  = "/ready"
)
