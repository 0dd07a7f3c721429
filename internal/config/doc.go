// Package config defines docscope's configuration model, defaults,
// validation, and YAML file loading.
package config
