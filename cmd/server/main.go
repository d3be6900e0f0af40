package main

import "github.com/Hugozera/apontamento/internal/app/server"

func main() {
	server.Run()
}
