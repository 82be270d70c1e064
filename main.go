package main

import "helphive/internal/app"

// @title HelpHive API
// @version 1.0
// @description Volunteer and NGO task matching platform.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @host localhost:8080
// @BasePath /
func main() {
	app.Run()
}
