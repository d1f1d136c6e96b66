package main

import (
	"log"

	"github.com/the-dev-tools/kanban/cmd/serverrun"
)

func main() {
	if err := serverrun.Run(); err != nil {
		log.Fatal(err)
	}
}
