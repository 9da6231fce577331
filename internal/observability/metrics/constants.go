package metrics

// Operation names recorded by the sound server.
const (
	OpOpenDevice  = "open_device"
	OpQueryConfig = "query_config"
	OpBuildStream = "build_stream"
	OpPlay        = "play"
	OpPause       = "pause"
	OpRender      = "render"
	OpRecord      = "record"
	OpGraphEdit   = "graph_edit"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
