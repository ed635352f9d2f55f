package app

import (
	"github.com/vk/heatgrid/internal/registry"
	"github.com/vk/heatgrid/modules/http_client"
	"github.com/vk/heatgrid/modules/print"
	"github.com/vk/heatgrid/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the heatgrid binary.
var coreModules = []registry.Module{
	&print.Module{},
	&http_client.Module{},
	&socketio.Module{},
}
