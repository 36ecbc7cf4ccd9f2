// main.go
package main

import "github.com/ariebrainware/measurement-gateway/command"

// @title                      Measurement Gateway API
// @version                    1.0
// @description                Patient self-monitoring: device lifecycle, measurements and heart attack risk prediction.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	command.Execute()
}
