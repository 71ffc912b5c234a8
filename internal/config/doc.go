// Package config provides configuration management for the template worker.
//
// Configuration is loaded from environment variables and validated on startup.
// All configuration options have sensible defaults for development; stored
// templates are only loaded when TEMPLATES_FILE is set.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg)
package config
