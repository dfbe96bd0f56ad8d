package main

import "github.com/sightline-labs/sightline/internal/bootstrap"

func main() {
	bootstrap.Run()
}
