package main

import (
	"fmt"
	"os"

	"e2egateway/cmd/gateway/commands"
	"e2egateway/internal/domain"
	"e2egateway/internal/util/log"
)

func main() {
	err := commands.Execute()
	log.Sync()
	if err == nil {
		return
	}
	if domain.IsGatewayError(err) {
		fmt.Fprintln(os.Stderr, "gateway error:", err)
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(1)
}
