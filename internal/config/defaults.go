package config

// defaults is the lowest config layer.  Keys use the same dotted paths as
// conf/hemo.yaml.
func defaults() map[string]any {
	return map[string]any{
		"tenant.root_domain":    "cimssante.com",
		"tenant.scheme":         "https",
		"tenant.validation_ttl": "5m",
		"http.listen_addr":      ":8080",
		"http.force_https":      true,
		"client.timeout":        "15s",
		"client.retry_max":      2,
		"session.backend":       "file",
		"session.dir":           ".hemo/sessions",
		"session.redis_db":      0,
		"session.ttl":           "336h",
		"session.max_scopes":    10000,
		"log.dir":               "logs",
		"log.level":             "info",
		"log.tee":               false,
	}
}
