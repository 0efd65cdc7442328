package commands

// DefaultRegistry returns a registry holding the engine's full command catalog.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterCatalog(r)
	return r
}

// RegisterCatalog registers the stable list of engine control commands.
func RegisterCatalog(r *Registry) {
	r.Register("command-list")
	r.Register("help")

	r.Register("iface-list")
	r.Register("iface-stat", Required("iface", String))

	r.Register("pcap-file",
		Required("filename", String),
		Required("output-dir", String),
		Optional("tenant", Number),
		Optional("continuous", Boolean),
		Optional("delete-when-done", Boolean),
	)
	r.Register("pcap-file-continuous",
		Required("filename", String),
		Required("output-dir", String),
		Required("continuous", Boolean),
	)

	r.Register("memcap-list")
	r.Register("memcap-show", Required("config", String))
	r.Register("memcap-set",
		Required("config", String),
		Required("memcap", String),
	)

	r.Register("uptime")
	r.Register("version")
	r.Register("running-mode")
	r.Register("capture-mode")
	r.Register("reload-rules")
	r.Register("ruleset-reload-nonblocking")
	r.Register("ruleset-stats")
}
