// Package config manages the tinyhttp configuration file.
//
// The file is YAML and lives in the platform-appropriate location:
//   - Linux: $XDG_CONFIG_HOME/tinyhttp/config.yaml or $HOME/.config/tinyhttp/config.yaml
//   - macOS: $HOME/.config/tinyhttp/config.yaml
//   - Windows: %LOCALAPPDATA%\tinyhttp\config.yaml
//
// # File Format
//
//	version: 1
//	log_level: info
//	server:
//	  host: ""
//	  port: 80
//	  max_request_size: 1024
//	  backlog: 1
//	leds:
//	  red: 18
//	  green: 19
//	  blue: 20
//	index_page: ""
//	discovery:
//	  advertise: true
//	  instance: tinyhttp
//
// Sections left out of the file take their default values. A missing file
// is not an error.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.ListenAddr())
package config
