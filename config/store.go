package config

type StoreCfg struct {
	// Path is the location of the embedded store. One store per process;
	// namespacing by owner and version happens inside the key space.
	Path string `yaml:"path"`

	// InMemory switches to a non-persistent map-backed store. Intended for
	// tests and one-shot harness runs.
	InMemory bool `yaml:"in_memory"`
}
