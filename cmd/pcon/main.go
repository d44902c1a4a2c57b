// cmd/pcon/main.go
package main

import (
	"github.com/natir/pcon/internal/app"
	"github.com/natir/pcon/internal/appshell"
)

func main() {
	appshell.Main("pcon", app.RunContext)
}
