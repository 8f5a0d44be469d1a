package main

import "leadrouter_backend/internal/app"

func main() {
	app.Run()
}
