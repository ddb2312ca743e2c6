// Command eventportal serves the club and event portal.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/eventportal/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
