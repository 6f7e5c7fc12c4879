package main

import (
	_ "time/tzdata"

	"github.com/tidepool-org/medical-data/api"
)

func main() {
	api.MainLoop()
}
