package main

import (
	"github.com/Herbstein/iracing-driver-data-dump/cmd/irdump/commands"
	"github.com/Herbstein/iracing-driver-data-dump/lib/serviceutil"
)

func main() {
	ctx, stop := serviceutil.SignalContext()
	defer stop()
	commands.ExecuteContext(ctx)
}
