// cmd/dirtywater/main.go
package main

import (
	"dirtywater/internal/app"
	"dirtywater/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
