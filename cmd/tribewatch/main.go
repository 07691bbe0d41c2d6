package main

import (
	"tribewatch-backend/cmd/tribewatch/commands"
	"tribewatch-backend/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
