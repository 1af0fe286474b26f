// Package config loads and saves the wsecho server configuration file.
//
// The configuration is a YAML document. Keys that are omitted keep their
// built-in defaults, and command-line flags override file values.
//
// # Configuration File Location
//
// Unless --config points elsewhere, the file is read from:
//   - Linux: $XDG_CONFIG_HOME/wsecho/config.yaml or $HOME/.config/wsecho/config.yaml
//   - macOS: $HOME/.config/wsecho/config.yaml
//   - Windows: %LOCALAPPDATA%\wsecho\config.yaml
//
// A missing file at the default location is not an error.
//
// # File Format
//
//	version: 1
//	listen:
//	  host: 127.0.0.1
//	  port: 8080
//	codec: gobwas
//	timeouts:
//	  handshake: 10s
//	  idle: 0s
//	  write: 10s
//	max_message_size: 0
//	capture_dir: ""
//	advertise:
//	  enabled: false
//	  instance: wsecho
//	log_level: info
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Listen.Addr())
package config
