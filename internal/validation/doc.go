// Package validation implements the configuration validation pipeline:
// parsing raw YAML payloads into document trees and checking the
// structural contract every stored configuration must satisfy.
package validation
